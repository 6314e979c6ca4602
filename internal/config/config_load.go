package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults and no credentials.
func Default() *Config {
	return &Config{
		Agents: AgentsConfig{
			Defaults: AgentDefaults{
				Model:          "claude-sonnet-4-5-20250929",
				EmbeddingModel: "local",
				MaxTokens:      4096,
			},
		},
		Sessions: SessionsConfig{
			Storage: "~/.beacon/sessions",
		},
		Memory: MemoryConfig{
			Path: "~/.beacon/vector_db.json",
		},
	}
}

// Load reads config from a JSON file, then overlays env credentials.
// A missing file yields the built-in defaults without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvFallbacks()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvFallbacks()
	return cfg, nil
}

// applyEnvFallbacks fills provider API keys from the environment,
// but only where the config file left them empty.
func (c *Config) applyEnvFallbacks() {
	envFallback := func(key string, dst *string) {
		if *dst == "" {
			if v := os.Getenv(key); v != "" {
				*dst = v
			}
		}
	}
	envFallback("OPENROUTER_API_KEY", &c.Providers.OpenRouter.APIKey)
	envFallback("ANTHROPIC_API_KEY", &c.Providers.Anthropic.APIKey)
	envFallback("OPENAI_API_KEY", &c.Providers.OpenAI.APIKey)
	envFallback("GROQ_API_KEY", &c.Providers.Groq.APIKey)
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
