package postgres

import (
	"log/slog"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tbellamy/membank/internal/core"
)

func TestModuleInfo(t *testing.T) {
	t.Parallel()

	m := &Module{}
	info := m.ModuleInfo()
	if info.ID != "store.postgres" {
		t.Errorf("ID = %q", info.ID)
	}
	if _, ok := info.New().(*Module); !ok {
		t.Error("New() should return *Module")
	}
}

func TestConfigureDefaults(t *testing.T) {
	t.Parallel()

	m := &Module{}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte("{}"), &node); err != nil {
		t.Fatal(err)
	}
	if err := m.Configure(node.Content[0]); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if m.config.URLEnv != "DATABASE_URL" {
		t.Errorf("url_env = %q", m.config.URLEnv)
	}
	if m.config.ConnectTimeout != defaultConnectTimeout {
		t.Errorf("connect_timeout = %v", m.config.ConnectTimeout)
	}
}

func TestProvisionRequiresURL(t *testing.T) {
	// Not parallel: depends on DATABASE_URL being unset.
	t.Setenv("DATABASE_URL", "")

	m := &Module{}
	m.config.defaults()

	err := m.Provision(core.NewAppContext(slog.New(slog.DiscardHandler), t.TempDir()))
	if err == nil {
		t.Fatal("expected error without connection string")
	}
}

func TestValidateRequiresProvision(t *testing.T) {
	t.Parallel()

	m := &Module{}
	if err := m.Validate(); err == nil {
		t.Error("expected error before Provision")
	}
}
