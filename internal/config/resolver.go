package config

import (
	"slices"
	"strings"
)

// Resolve returns module IDs from the configuration in deterministic load
// order: store backends first, then providers, then everything else
// (alphabetical within each group). Stores and providers must be
// provisioned before the components wired on top of them start.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}

	rank := func(id string) int {
		switch {
		case strings.HasPrefix(id, "store."):
			return 0
		case strings.HasPrefix(id, "provider."):
			return 1
		default:
			return 2
		}
	}

	slices.SortFunc(ids, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return ids
}
