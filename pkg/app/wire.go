package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tbellamy/membank/internal/config"
	"github.com/tbellamy/membank/internal/core"
	"github.com/tbellamy/membank/internal/cron"
	"github.com/tbellamy/membank/internal/memory"
	"github.com/tbellamy/membank/internal/observability"
	"github.com/tbellamy/membank/internal/provider"
)

// schedulerModule wraps a *cron.Scheduler to satisfy core.Starter and
// core.Stopper, so the sweep participates in the App lifecycle.
type schedulerModule struct {
	scheduler *cron.Scheduler
}

func (m *schedulerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "cron.sweep"}
}

func (m *schedulerModule) Start() error {
	return m.scheduler.Start()
}

func (m *schedulerModule) Stop(ctx context.Context) error {
	return m.scheduler.Stop(ctx)
}

// wireBank builds the memory bank from the loaded modules and registers
// it for the gateway and MCP server to discover. Must be called after
// LoadModules and before Start.
func wireBank(
	app *core.App,
	appCtx *core.AppContext,
	ids []string,
	cfg *config.Config,
	logger *slog.Logger,
) error {
	// Discover the provider among loaded modules. Config validation
	// guarantees exactly one provider.* module is configured.
	var prov provider.Provider
	for _, id := range ids {
		mod, ok := app.Module(id)
		if !ok {
			continue
		}
		if p, ok := mod.(provider.Provider); ok {
			prov = p
			logger.Info("bank: discovered provider", "module", id, "model", p.ModelName())
		}
	}
	if prov == nil {
		return fmt.Errorf("bank: no provider module loaded")
	}

	// The store module registered its service during Provision. Without
	// one, the bank runs on the in-memory store.
	var store memory.Store
	if svc, ok := appCtx.Service("memory.store"); ok {
		store, _ = svc.(memory.Store)
	}
	if store == nil {
		logger.Info("bank: no store module configured, using in-memory store")
		store = memory.NewInMemoryStore()
	}

	events := memory.NewBroker()

	bank, err := memory.NewBank(memory.Config{
		Store:            store,
		Provider:         prov,
		Logger:           logger.With("component", "memory"),
		Metrics:          observability.NewMetrics("membank"),
		Events:           events,
		MaxSearchResults: cfg.Bank.MaxSearchResults,
		FallbackResults:  cfg.Bank.FallbackResults,
	})
	if err != nil {
		return fmt.Errorf("bank: %w", err)
	}

	appCtx.RegisterService("memory.bank", bank)
	appCtx.RegisterService("memory.events", events)

	if cfg.Sweep.Enabled {
		maxIdle := 30 * time.Minute
		if cfg.Sweep.MaxIdle != "" {
			maxIdle, err = time.ParseDuration(cfg.Sweep.MaxIdle)
			if err != nil {
				return fmt.Errorf("bank: invalid sweep max_idle %q: %w", cfg.Sweep.MaxIdle, err)
			}
		}

		scheduler := cron.NewScheduler(logger.With("component", "cron"))
		if err := scheduler.RegisterJob(&cron.ExtractionSweepJob{
			Bank:         bank,
			MaxIdle:      maxIdle,
			Logger:       logger.With("component", "cron"),
			ScheduleExpr: cfg.Sweep.Schedule,
		}); err != nil {
			return fmt.Errorf("bank: registering sweep job: %w", err)
		}

		app.AppendModule("cron.sweep", &schedulerModule{scheduler: scheduler})
		logger.Info("bank: extraction sweep enabled",
			"schedule", cfg.Sweep.Schedule,
			"max_idle", maxIdle,
		)
	}

	logger.Info("bank: wired", "store", fmt.Sprintf("%T", store))
	return nil
}
