package providers

import (
	"strings"

	"github.com/mossline/beacon/internal/config"
)

// ForModel picks the adapter for a model string: anything containing
// "claude" goes to Anthropic, everything else to the first configured
// OpenAI-compatible provider (openrouter, openai, groq in that order).
func ForModel(cfg *config.Config, model string) (Provider, error) {
	if strings.Contains(strings.ToLower(model), "claude") {
		pc := cfg.Providers.Anthropic
		if pc.APIKey == "" {
			return nil, &Error{Kind: KindNoAPIKey, Provider: "anthropic", Message: "no API key configured"}
		}
		return NewAnthropicProvider(pc.APIKey, pc.APIBase), nil
	}

	candidates := []struct {
		name string
		pc   config.ProviderConfig
	}{
		{"openrouter", cfg.Providers.OpenRouter},
		{"openai", cfg.Providers.OpenAI},
		{"groq", cfg.Providers.Groq},
	}
	for _, c := range candidates {
		if c.pc.APIKey != "" {
			return NewOpenAIProvider(c.name, c.pc.APIKey, c.pc.APIBase), nil
		}
	}
	return nil, &Error{Kind: KindNoAPIKey, Provider: "openai", Message: "no API key configured"}
}
