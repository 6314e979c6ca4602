package providers

import (
	"errors"
	"testing"

	"github.com/mossline/beacon/internal/config"
)

func TestForModelRoutesClaudeToAnthropic(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Anthropic.APIKey = "sk-ant"
	cfg.Providers.OpenAI.APIKey = "sk-oai"

	p, err := ForModel(cfg, "claude-sonnet-4-5-20250929")
	if err != nil {
		t.Fatalf("ForModel: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("provider = %q, want anthropic", p.Name())
	}
}

func TestForModelClaudeWithoutKey(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.OpenAI.APIKey = "sk-oai"

	_, err := ForModel(cfg, "claude-3-haiku")
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindNoAPIKey {
		t.Fatalf("expected NoAPIKey, got %v", err)
	}
}

func TestForModelOpenAICompatibleOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.OpenRouter.APIKey = "sk-or"
	cfg.Providers.OpenAI.APIKey = "sk-oai"
	cfg.Providers.Groq.APIKey = "sk-groq"

	p, err := ForModel(cfg, "gpt-4o")
	if err != nil {
		t.Fatalf("ForModel: %v", err)
	}
	if p.Name() != "openrouter" {
		t.Errorf("provider = %q, want openrouter (first configured wins)", p.Name())
	}

	cfg.Providers.OpenRouter.APIKey = ""
	p, err = ForModel(cfg, "gpt-4o")
	if err != nil {
		t.Fatalf("ForModel: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("provider = %q, want openai", p.Name())
	}

	cfg.Providers.OpenAI.APIKey = ""
	p, err = ForModel(cfg, "llama-3.3-70b")
	if err != nil {
		t.Fatalf("ForModel: %v", err)
	}
	if p.Name() != "groq" {
		t.Errorf("provider = %q, want groq", p.Name())
	}
}

func TestForModelNoProvidersConfigured(t *testing.T) {
	cfg := config.Default()

	_, err := ForModel(cfg, "gpt-4o")
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindNoAPIKey {
		t.Fatalf("expected NoAPIKey, got %v", err)
	}
}
