package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tbellamy/membank/internal/core"
)

// Validate checks the structural validity of a Config.
// It verifies the version field, requires exactly one provider module and
// at most one store module, and checks that all referenced module IDs
// exist in the registry.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: at least one module must be configured"))
	}

	var providers, stores int
	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
			continue
		}
		switch {
		case strings.HasPrefix(id, "provider."):
			providers++
		case strings.HasPrefix(id, "store."):
			stores++
		}
	}

	if len(cfg.Modules) > 0 && providers == 0 {
		errs = append(errs, errors.New("config: exactly one provider.* module is required"))
	}
	if providers > 1 {
		errs = append(errs, fmt.Errorf("config: %d provider modules configured, want exactly 1", providers))
	}
	if stores > 1 {
		errs = append(errs, fmt.Errorf("config: %d store modules configured, want at most 1", stores))
	}

	errs = append(errs, validateBank(cfg.Bank)...)
	errs = append(errs, validateSweep(cfg.Sweep)...)

	return errors.Join(errs...)
}

func validateBank(bank BankConfig) []error {
	var errs []error
	if bank.MaxSearchResults < 0 {
		errs = append(errs, errors.New("config: bank.max_search_results must be non-negative"))
	}
	if bank.FallbackResults < 0 {
		errs = append(errs, errors.New("config: bank.fallback_results must be non-negative"))
	}
	return errs
}

func validateSweep(sweep SweepConfig) []error {
	if !sweep.Enabled {
		return nil
	}
	var errs []error
	if sweep.MaxIdle != "" {
		if d, err := time.ParseDuration(sweep.MaxIdle); err != nil {
			errs = append(errs, fmt.Errorf("config: sweep.max_idle: %w", err))
		} else if d <= 0 {
			errs = append(errs, errors.New("config: sweep.max_idle must be positive"))
		}
	}
	return errs
}
