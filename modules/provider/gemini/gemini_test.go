package gemini

import (
	"testing"

	"github.com/tbellamy/membank/internal/provider"
)

func TestModuleInfo(t *testing.T) {
	t.Parallel()

	g := &Gemini{}
	info := g.ModuleInfo()
	if info.ID != "provider.gemini" {
		t.Errorf("ID = %q", info.ID)
	}
	if _, ok := info.New().(*Gemini); !ok {
		t.Error("New() should return *Gemini")
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	cfg.defaults()

	if cfg.Model != defaultModel {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.APIKeyEnv != defaultEnvVar {
		t.Errorf("api_key_env = %q", cfg.APIKeyEnv)
	}
	if cfg.Timeout != defaultTimeout {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
}

func TestFoldMessages(t *testing.T) {
	t.Parallel()

	single := foldMessages([]provider.LLMMessage{{Content: "just this"}})
	if single != "just this" {
		t.Errorf("single = %q", single)
	}

	folded := foldMessages([]provider.LLMMessage{
		{Role: provider.MessageRoleSystem, Content: "be terse"},
		{Role: provider.MessageRoleUser, Content: "rank these"},
	})
	if folded != "be terse\n\nrank these" {
		t.Errorf("folded = %q", folded)
	}
}

func TestValidateRequiresProvision(t *testing.T) {
	t.Parallel()

	g := &Gemini{}
	g.config.defaults()
	if err := g.Validate(); err == nil {
		t.Error("expected error before Provision")
	}
}
