package config

// Config is the root configuration for the beacon runtime.
// It is loaded once at startup and treated as a read-only snapshot
// thereafter; nothing mutates it during a run.
type Config struct {
	Agents    AgentsConfig    `json:"agents"`
	Providers ProvidersConfig `json:"providers"`
	Tools     ToolsConfig     `json:"tools"`
	Sessions  SessionsConfig  `json:"sessions"`
	Memory    MemoryConfig    `json:"memory"`
}

// AgentsConfig contains agent defaults.
type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
}

// AgentDefaults are default settings for all agents.
type AgentDefaults struct {
	Model           string `json:"model"`
	EmbeddingModel  string `json:"embeddingModel,omitempty"`  // "local" (default) or a remote embedding model name
	DisableRag      bool   `json:"disableRag,omitempty"`      // skip conversation indexing even when RAG tools are registered
	LoadChatHistory bool   `json:"loadChatHistory,omitempty"` // load prior session context on agent init
	MaxChatHistory  int    `json:"maxChatHistory,omitempty"`  // max messages loaded from a prior session (0 = all)
	MaxTokens       int    `json:"maxTokens,omitempty"`
}

// ProvidersConfig holds credentials for the supported LLM providers.
type ProvidersConfig struct {
	OpenRouter ProviderConfig `json:"openrouter,omitempty"`
	Anthropic  ProviderConfig `json:"anthropic,omitempty"`
	OpenAI     ProviderConfig `json:"openai,omitempty"`
	Groq       ProviderConfig `json:"groq,omitempty"`
}

// ProviderConfig is one provider's credential pair.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	APIBase string `json:"apiBase,omitempty"`
}

// ToolsConfig holds front-end and tool credentials.
type ToolsConfig struct {
	Telegram TelegramConfig `json:"telegram,omitempty"`
	Web      WebToolsConfig `json:"web,omitempty"`
}

// TelegramConfig configures the Telegram front-end.
type TelegramConfig struct {
	BotToken string `json:"botToken,omitempty"`
	ChatID   string `json:"chatId,omitempty"` // default chat for shutdown notices
}

// WebToolsConfig holds web tool credentials (extension tools only).
type WebToolsConfig struct {
	Search WebSearchConfig `json:"search,omitempty"`
}

// WebSearchConfig holds the web search API key.
type WebSearchConfig struct {
	APIKey string `json:"apiKey,omitempty"`
}

// SessionsConfig configures session persistence.
type SessionsConfig struct {
	Storage string `json:"storage,omitempty"` // sessions directory
}

// MemoryConfig configures the local vector store.
type MemoryConfig struct {
	Path string `json:"path,omitempty"` // vector_db.json location
}

// HasAnyProvider reports whether at least one provider credential is set.
func (c *Config) HasAnyProvider() bool {
	p := c.Providers
	return p.OpenRouter.APIKey != "" || p.Anthropic.APIKey != "" ||
		p.OpenAI.APIKey != "" || p.Groq.APIKey != ""
}
