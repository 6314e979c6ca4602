package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sseServer(t *testing.T, lines []string, capture *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, capture); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			io.WriteString(w, line+"\n")
		}
	}))
}

func TestOpenAIStreamContent(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
	}, nil)
	defer srv.Close()

	p := NewOpenAIProvider("openai", "sk-test", srv.URL)

	var chunks []string
	doneSeen := false
	resp, err := p.ChatStream(context.Background(), ChatRequest{
		Model:    "gpt-4o",
		Messages: []Message{{Role: "user", Content: "hi"}},
	}, func(c StreamChunk) {
		if c.Done {
			doneSeen = true
		}
		if c.Content != "" {
			chunks = append(chunks, c.Content)
		}
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if resp.Content != "Hello" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("finish = %q", resp.FinishReason)
	}
	if strings.Join(chunks, "") != "Hello" {
		t.Errorf("chunks = %v", chunks)
	}
	if !doneSeen {
		t.Error("final Done chunk not delivered")
	}
}

func TestOpenAIStreamAccumulatesToolCalls(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"vector_search","arguments":""}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"query\":"}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"zig\"}"}}]}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		`data: [DONE]`,
	}, nil)
	defer srv.Close()

	p := NewOpenAIProvider("openrouter", "sk-test", srv.URL)
	resp, err := p.ChatStream(context.Background(), ChatRequest{
		Model:    "some-model",
		Messages: []Message{{Role: "user", Content: "search"}},
	}, nil)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "vector_search" {
		t.Errorf("tool call = %+v", tc)
	}
	if tc.Arguments != `{"query":"zig"}` {
		t.Errorf("arguments = %q", tc.Arguments)
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("finish = %q", resp.FinishReason)
	}
}

func TestOpenAIEmptyToolArgumentsDefault(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c1","function":{"name":"vector_search"}}]}}]}`,
		`data: [DONE]`,
	}, nil)
	defer srv.Close()

	p := NewOpenAIProvider("openai", "sk-test", srv.URL)
	resp, err := p.ChatStream(context.Background(), ChatRequest{
		Model:    "gpt-4o",
		Messages: []Message{{Role: "user", Content: "go"}},
	}, nil)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if resp.ToolCalls[0].Arguments != "{}" {
		t.Errorf("empty arguments should default to {}, got %q", resp.ToolCalls[0].Arguments)
	}
}

func TestOpenAIRequestBodyShape(t *testing.T) {
	var captured map[string]interface{}
	srv := sseServer(t, []string{`data: [DONE]`}, &captured)
	defer srv.Close()

	p := NewOpenAIProvider("openai", "sk-test", srv.URL)
	_, err := p.ChatStream(context.Background(), ChatRequest{
		Model: "gpt-4o",
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", ToolCalls: []ToolCall{{ID: "c1", Name: "f", Arguments: "{}"}}},
			{Role: "tool", ToolCallID: "c1", Content: "result"},
		},
		Tools: []ToolDefinition{{Name: "f", Description: "d", Parameters: map[string]interface{}{"type": "object"}}},
	}, nil)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	if captured["stream"] != true {
		t.Error("stream flag missing")
	}
	msgs := captured["messages"].([]interface{})
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}

	// Assistant message with tool calls must omit empty content.
	assistant := msgs[2].(map[string]interface{})
	if _, present := assistant["content"]; present {
		t.Error("assistant tool-call message should omit empty content")
	}
	if _, present := assistant["tool_calls"]; !present {
		t.Error("assistant tool_calls missing")
	}

	toolMsg := msgs[3].(map[string]interface{})
	if toolMsg["tool_call_id"] != "c1" {
		t.Errorf("tool_call_id = %v", toolMsg["tool_call_id"])
	}

	tools := captured["tools"].([]interface{})
	tool := tools[0].(map[string]interface{})
	if tool["type"] != "function" {
		t.Errorf("tool wrapper type = %v", tool["type"])
	}
}

func TestOpenAIClassifiesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":"rate limit exceeded"}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("groq", "sk-test", srv.URL)
	_, err := p.ChatStream(context.Background(), ChatRequest{
		Model:    "m",
		Messages: []Message{{Role: "user", Content: "hi"}},
	}, nil)

	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindRateLimited {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}
