package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "membank.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Basic(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  provider.gemini:
    model: gemini-2.5-flash
bank:
  max_search_results: 7
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != "1" {
		t.Errorf("version = %q, want 1", cfg.Version)
	}
	if _, ok := cfg.Modules["provider.gemini"]; !ok {
		t.Error("provider.gemini module section missing")
	}
	if cfg.Bank.MaxSearchResults != 7 {
		t.Errorf("bank.max_search_results = %d, want 7", cfg.Bank.MaxSearchResults)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("MEMBANK_TEST_MODEL", "gemini-from-env")

	path := writeConfig(t, `
version: "1"
modules:
  provider.gemini:
    model: ${MEMBANK_TEST_MODEL}
    api_key: ${MEMBANK_TEST_ABSENT:-fallback-key}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	node := cfg.Modules["provider.gemini"]
	var section struct {
		Model  string `yaml:"model"`
		APIKey string `yaml:"api_key"`
	}
	if err := node.Decode(&section); err != nil {
		t.Fatalf("decoding section: %v", err)
	}
	if section.Model != "gemini-from-env" {
		t.Errorf("model = %q, want env value", section.Model)
	}
	if section.APIKey != "fallback-key" {
		t.Errorf("api_key = %q, want default value", section.APIKey)
	}
}

func TestLoad_EscapedDefault(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  provider.gemini:
    api_key: "${MEMBANK_TEST_ABSENT:-a\}b}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	node := cfg.Modules["provider.gemini"]
	var section struct {
		APIKey string `yaml:"api_key"`
	}
	if err := node.Decode(&section); err != nil {
		t.Fatalf("decoding section: %v", err)
	}
	if section.APIKey != "a}b" {
		t.Errorf("api_key = %q, want escaped brace resolved to a}b", section.APIKey)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  provider.gemini:
    api_key: ${MEMBANK_TEST_DEFINITELY_UNSET}
  store.postgres:
    url: ${MEMBANK_TEST_ALSO_UNSET}
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unresolved variables")
	}
	// Every missing variable is reported in one error.
	for _, name := range []string{"MEMBANK_TEST_DEFINITELY_UNSET", "MEMBANK_TEST_ALSO_UNSET"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error does not name %s: %v", name, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolve_Order(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  gateway.http: {}
  provider.gemini: {}
  store.sqlite: {}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := Resolve(cfg)
	want := []string{"store.sqlite", "provider.gemini", "gateway.http"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}
