package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Agents.Defaults.Model == "" {
		t.Error("default model is empty")
	}
	if cfg.Agents.Defaults.EmbeddingModel != "local" {
		t.Errorf("default embedding model = %q, want local", cfg.Agents.Defaults.EmbeddingModel)
	}
	if cfg.Agents.Defaults.MaxTokens != 4096 {
		t.Errorf("default max tokens = %d", cfg.Agents.Defaults.MaxTokens)
	}
	if cfg.Sessions.Storage == "" || cfg.Memory.Path == "" {
		t.Error("default storage paths are empty")
	}
	if cfg.HasAnyProvider() {
		t.Error("defaults should carry no credentials")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agents.Defaults.Model != Default().Agents.Defaults.Model {
		t.Errorf("missing file should yield defaults, got model %q", cfg.Agents.Defaults.Model)
	}
}

func TestLoadParsesJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		// comments are allowed
		agents: {
			defaults: {
				model: "gpt-4o",
				loadChatHistory: true,
				maxChatHistory: 50,
			},
		},
		providers: {
			openai: { apiKey: "sk-test" },
		},
		tools: {
			telegram: { botToken: "123:abc", chatId: "42" },
		},
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agents.Defaults.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.Agents.Defaults.Model)
	}
	if !cfg.Agents.Defaults.LoadChatHistory || cfg.Agents.Defaults.MaxChatHistory != 50 {
		t.Errorf("history settings not parsed: %+v", cfg.Agents.Defaults)
	}
	if cfg.Providers.OpenAI.APIKey != "sk-test" {
		t.Errorf("openai key = %q", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Tools.Telegram.BotToken != "123:abc" || cfg.Tools.Telegram.ChatID != "42" {
		t.Errorf("telegram config not parsed: %+v", cfg.Tools.Telegram)
	}
}

func TestEnvFallbackFillsOnlyEmptyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{ providers: { openai: { apiKey: "from-file" } } }`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("GROQ_API_KEY", "groq-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.OpenAI.APIKey != "from-file" {
		t.Errorf("env must not override file: %q", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Providers.Groq.APIKey != "groq-env" {
		t.Errorf("env fallback missing: %q", cfg.Providers.Groq.APIKey)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}

	if got := ExpandHome("~/x/y"); got != filepath.Join(home, "x/y") {
		t.Errorf("ExpandHome(~/x/y) = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := ExpandHome("relative"); got != "relative" {
		t.Errorf("relative path changed: %q", got)
	}
}
