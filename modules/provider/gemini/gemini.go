// Package gemini implements the provider.gemini module on top of the
// Google Generative AI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/generative-ai-go/genai"
	genaiopt "google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/tbellamy/membank/internal/core"
	"github.com/tbellamy/membank/internal/provider"
)

func init() {
	core.RegisterModule(&Gemini{})
}

// Interface guards.
var (
	_ core.Module       = (*Gemini)(nil)
	_ core.Configurable = (*Gemini)(nil)
	_ core.Provisioner  = (*Gemini)(nil)
	_ core.Validator    = (*Gemini)(nil)
	_ core.Stopper      = (*Gemini)(nil)
	_ provider.Provider = (*Gemini)(nil)
)

// Gemini is the provider.gemini module.
type Gemini struct {
	config Config
	client *genai.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (g *Gemini) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.gemini",
		New: func() core.Module { return &Gemini{} },
	}
}

// Configure implements core.Configurable.
func (g *Gemini) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The genai client keeps a gRPC
// connection, so it is created once here and closed in Stop.
func (g *Gemini) Provision(ctx *core.AppContext) error {
	g.logger = ctx.Logger

	apiKey := g.config.APIKey
	if apiKey == "" {
		if envKey, ok := os.LookupEnv(g.config.APIKeyEnv); ok {
			apiKey = envKey
		}
	}
	if apiKey == "" {
		return fmt.Errorf("provider.gemini: no API key: set api_key or %s", g.config.APIKeyEnv)
	}

	client, err := genai.NewClient(context.Background(), genaiopt.WithAPIKey(apiKey))
	if err != nil {
		return fmt.Errorf("provider.gemini: create client: %w", err)
	}
	g.client = client

	return nil
}

// Validate implements core.Validator.
func (g *Gemini) Validate() error {
	if g.config.Model == "" {
		return errors.New("provider.gemini: model must not be empty")
	}
	if g.client == nil {
		return errors.New("provider.gemini: client not initialized (Provision not called)")
	}
	return nil
}

// Stop implements core.Stopper.
func (g *Gemini) Stop(_ context.Context) error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// ModelName implements provider.Provider.
func (g *Gemini) ModelName() string {
	return g.config.Model
}
