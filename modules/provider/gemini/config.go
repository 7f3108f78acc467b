package gemini

import "time"

// defaultModel is the model used when none is specified.
const defaultModel = "gemini-2.0-flash"

// defaultTimeout bounds each completion request.
const defaultTimeout = 60 * time.Second

// defaultEnvVar is consulted when neither api_key nor api_key_env is set.
const defaultEnvVar = "GEMINI_API_KEY"

// Config holds the YAML-decoded configuration for the Gemini provider.
type Config struct {
	APIKey    string        `yaml:"api_key"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// defaults fills in zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = defaultEnvVar
	}
}
