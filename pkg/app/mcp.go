package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tbellamy/membank/internal/config"
	"github.com/tbellamy/membank/internal/core"
	"github.com/tbellamy/membank/internal/memory"
	"github.com/tbellamy/membank/internal/mcpserver"
	"github.com/tbellamy/membank/internal/provider"
)

// RunMCP serves the memory bank over MCP stdio. The gateway module is
// never started: only the provider and store are provisioned, and the
// MCP client owns the process lifetime.
func RunMCP(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// stdout carries the MCP protocol; logs must go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: params.LogLevel,
	}))

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}

	appCtx := core.NewAppContext(logger, dataDir)
	appCtx = appCtx.WithModuleConfigs(cfg.Modules)

	application := core.NewApp(appCtx)
	ids := make([]string, 0, len(cfg.Modules))
	for _, id := range config.Resolve(cfg) {
		if id == "gateway.http" {
			continue
		}
		ids = append(ids, id)
	}
	if err := application.LoadModules(ids); err != nil {
		return err
	}
	// Modules are provisioned but never started in MCP mode; Cleanup
	// still closes what Provision opened (store handles, clients).
	defer application.Cleanup()

	var prov provider.Provider
	for _, id := range ids {
		mod, ok := application.Module(id)
		if !ok {
			continue
		}
		if p, ok := mod.(provider.Provider); ok {
			prov = p
		}
	}
	if prov == nil {
		return fmt.Errorf("mcp: no provider module loaded")
	}

	var store memory.Store
	if svc, ok := appCtx.Service("memory.store"); ok {
		store, _ = svc.(memory.Store)
	}
	if store == nil {
		store = memory.NewInMemoryStore()
	}

	bank, err := memory.NewBank(memory.Config{
		Store:            store,
		Provider:         prov,
		Logger:           logger.With("component", "memory"),
		MaxSearchResults: cfg.Bank.MaxSearchResults,
		FallbackResults:  cfg.Bank.FallbackResults,
	})
	if err != nil {
		return fmt.Errorf("mcp: %w", err)
	}

	logger.Info("serving MCP over stdio", "model", prov.ModelName())
	return mcpserver.New(bank, logger, params.Version).ServeStdio()
}
