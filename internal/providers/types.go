package providers

import "context"

// Provider is the interface all LLM providers implement.
type Provider interface {
	// ChatStream sends messages and streams response chunks via onChunk.
	// Returns the final complete response after streaming ends. onChunk
	// may be invoked from the same call frame and need not be thread-safe.
	ChatStream(ctx context.Context, req ChatRequest, onChunk func(StreamChunk)) (*ChatResponse, error)

	// Name returns the provider identifier (e.g. "anthropic", "openrouter").
	Name() string
}

// ChatRequest contains the input for a ChatStream call.
type ChatRequest struct {
	Messages  []Message        `json:"messages"`
	Tools     []ToolDefinition `json:"tools,omitempty"`
	Model     string           `json:"model,omitempty"`
	MaxTokens int              `json:"max_tokens,omitempty"`
}

// ChatResponse is the result from an LLM call. At least one of Content
// and ToolCalls is non-empty on a well-formed response; both may coexist.
type ChatResponse struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"` // "stop", "tool_calls", "length"
}

// StreamChunk is a piece of a streaming response.
type StreamChunk struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// Message represents one conversation message.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on role="tool" messages
}

// ToolCall represents a tool invocation requested by the LLM.
// Arguments is the raw JSON string as the provider sent it; tools
// unmarshal it themselves.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition describes a tool available to the LLM.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}
