package config

import (
	"os"
	"time"
)

// GenerationConfig selects the content generation provider.
type GenerationConfig struct {
	Provider   string        `mapstructure:"provider"`    // "openai" (any OpenAI-compatible API) or "gemini"
	Model      string        `mapstructure:"model"`       // text model
	ImageModel string        `mapstructure:"image_model"` // openai only
	APIKey     string        `mapstructure:"api_key"`
	APIKeyEnv  string        `mapstructure:"api_key_env"` // env var holding the key
	BaseURL    string        `mapstructure:"base_url"`
	BaseURLEnv string        `mapstructure:"base_url_env"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ResolveEnvVars fills APIKey and BaseURL from the named environment
// variables. Direct values take precedence.
func (c *GenerationConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		c.APIKey = os.Getenv(c.APIKeyEnv)
	}
	if c.BaseURLEnv != "" && c.BaseURL == "" {
		c.BaseURL = os.Getenv(c.BaseURLEnv)
	}
}

// Enabled reports whether a provider can be called at all.
func (c *GenerationConfig) Enabled() bool {
	return c.APIKey != ""
}
