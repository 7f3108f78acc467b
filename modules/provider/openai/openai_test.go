package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tbellamy/membank/internal/core"
	"github.com/tbellamy/membank/internal/provider"
)

func TestModuleInfo(t *testing.T) {
	t.Parallel()

	o := &OpenAI{}
	info := o.ModuleInfo()
	if info.ID != "provider.openai" {
		t.Errorf("ID = %q", info.ID)
	}
	if _, ok := info.New().(*OpenAI); !ok {
		t.Error("New() should return *OpenAI")
	}
}

func TestConfigureDefaults(t *testing.T) {
	t.Parallel()

	o := &OpenAI{}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte("{}"), &node); err != nil {
		t.Fatal(err)
	}
	if err := o.Configure(node.Content[0]); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if o.config.Model != defaultModel {
		t.Errorf("model = %q", o.config.Model)
	}
	if o.config.APIKeyEnv != defaultEnvVar {
		t.Errorf("api_key_env = %q", o.config.APIKeyEnv)
	}
}

func TestConvertRequest(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxTokens: 512}
	cfg.defaults()

	temp := 0.1
	req := provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			{Role: provider.MessageRoleSystem, Content: "be terse"},
			{Role: provider.MessageRoleUser, Content: "rank these"},
		},
		Temperature: &temp,
	}

	out := convertRequest(req, &cfg)

	if out.Model != defaultModel {
		t.Errorf("model = %q", out.Model)
	}
	if len(out.Messages) != 2 || out.Messages[0].Role != "system" || out.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", out.Messages)
	}
	if out.MaxTokens != 512 {
		t.Errorf("max tokens = %d, want config default", out.MaxTokens)
	}
	if out.Temperature != 0.1 {
		t.Errorf("temperature = %v", out.Temperature)
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `[{"fact": "x"}]`}},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer server.Close()

	o := &OpenAI{config: Config{APIKey: "test", BaseURL: server.URL}}
	o.config.defaults()
	if err := o.Provision(core.NewAppContext(slog.New(slog.DiscardHandler), t.TempDir())); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	resp, err := o.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `[{"fact": "x"}]` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}
