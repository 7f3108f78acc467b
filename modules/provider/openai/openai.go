// Package openai implements the provider.openai module using the OpenAI
// chat completions API. Any OpenAI-compatible endpoint works via base_url.
package openai

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	sdkopenai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"

	"github.com/tbellamy/membank/internal/core"
	"github.com/tbellamy/membank/internal/provider"
)

func init() {
	core.RegisterModule(&OpenAI{})
}

// Interface guards.
var (
	_ core.Module       = (*OpenAI)(nil)
	_ core.Configurable = (*OpenAI)(nil)
	_ core.Provisioner  = (*OpenAI)(nil)
	_ core.Validator    = (*OpenAI)(nil)
	_ provider.Provider = (*OpenAI)(nil)
)

// OpenAI is the provider.openai module.
type OpenAI struct {
	config Config
	client *sdkopenai.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (o *OpenAI) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.openai",
		New: func() core.Module { return &OpenAI{} },
	}
}

// Configure implements core.Configurable.
func (o *OpenAI) Configure(node *yaml.Node) error {
	if err := node.Decode(&o.config); err != nil {
		return err
	}
	o.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (o *OpenAI) Provision(ctx *core.AppContext) error {
	o.logger = ctx.Logger

	apiKey := o.config.APIKey
	if apiKey == "" {
		if envKey, ok := os.LookupEnv(o.config.APIKeyEnv); ok {
			apiKey = envKey
		}
	}

	clientCfg := sdkopenai.DefaultConfig(apiKey)
	if o.config.BaseURL != "" {
		clientCfg.BaseURL = o.config.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: o.config.Timeout}

	o.client = sdkopenai.NewClientWithConfig(clientCfg)
	return nil
}

// Validate implements core.Validator.
func (o *OpenAI) Validate() error {
	if o.config.Model == "" {
		return errors.New("provider.openai: model must not be empty")
	}
	if o.client == nil {
		return errors.New("provider.openai: client not initialized (Provision not called)")
	}
	return nil
}

// ModelName implements provider.Provider.
func (o *OpenAI) ModelName() string {
	return o.config.Model
}
