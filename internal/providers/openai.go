package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// OpenAIProvider implements Provider for OpenAI-compatible APIs
// (OpenAI, Groq, OpenRouter, and anything else speaking /chat/completions).
type OpenAIProvider struct {
	name    string
	apiKey  string
	apiBase string
	client  *http.Client
}

// defaultAPIBases maps known OpenAI-compatible provider names to endpoints.
var defaultAPIBases = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"groq":       "https://api.groq.com/openai/v1",
}

func NewOpenAIProvider(name, apiKey, apiBase string) *OpenAIProvider {
	if apiBase == "" {
		apiBase = defaultAPIBases[name]
	}
	if apiBase == "" {
		apiBase = defaultAPIBases["openai"]
	}
	return &OpenAIProvider{
		name:    name,
		apiKey:  apiKey,
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  newHTTPClient(),
	}
}

// newHTTPClient applies the shared timeout policy: 30s connect, 120s full
// request, 60s waiting on response headers.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 120 * time.Second,
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) ChatStream(ctx context.Context, req ChatRequest, onChunk func(StreamChunk)) (*ChatResponse, error) {
	body := p.buildRequestBody(req)

	respBody, err := p.doRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	defer respBody.Close()

	result := &ChatResponse{FinishReason: "stop"}
	accumulators := make(map[int]*ToolCall)
	maxIndex := -1

	scanner := bufio.NewScanner(respBody)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk openAIStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			result.Content += delta.Content
			if onChunk != nil {
				onChunk(StreamChunk{Content: delta.Content})
			}
		}

		for _, tc := range delta.ToolCalls {
			acc, ok := accumulators[tc.Index]
			if !ok {
				acc = &ToolCall{ID: tc.ID}
				accumulators[tc.Index] = acc
				if tc.Index > maxIndex {
					maxIndex = tc.Index
				}
			}
			if tc.ID != "" {
				acc.ID = tc.ID
			}
			if tc.Function.Name != "" {
				acc.Name = strings.TrimSpace(tc.Function.Name)
			}
			acc.Arguments += tc.Function.Arguments
		}

		if chunk.Choices[0].FinishReason != "" {
			result.FinishReason = chunk.Choices[0].FinishReason
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, netError(p.name, err)
	}

	for i := 0; i <= maxIndex; i++ {
		acc, ok := accumulators[i]
		if !ok {
			continue
		}
		if acc.Arguments == "" {
			acc.Arguments = "{}"
		}
		result.ToolCalls = append(result.ToolCalls, *acc)
	}
	if len(result.ToolCalls) > 0 {
		result.FinishReason = "tool_calls"
	}

	if onChunk != nil {
		onChunk(StreamChunk{Done: true})
	}
	return result, nil
}

func (p *OpenAIProvider) buildRequestBody(req ChatRequest) map[string]interface{} {
	msgs := make([]map[string]interface{}, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg := map[string]interface{}{"role": m.Role}

		// Omit empty content on assistant messages carrying tool_calls;
		// several compatible backends reject it.
		if m.Content != "" || len(m.ToolCalls) == 0 {
			msg["content"] = m.Content
		}

		if len(m.ToolCalls) > 0 {
			toolCalls := make([]map[string]interface{}, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				toolCalls[i] = map[string]interface{}{
					"id":   tc.ID,
					"type": "function",
					"function": map[string]interface{}{
						"name":      tc.Name,
						"arguments": tc.Arguments,
					},
				}
			}
			msg["tool_calls"] = toolCalls
		}

		if m.ToolCallID != "" {
			msg["tool_call_id"] = m.ToolCallID
		}

		msgs = append(msgs, msg)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body := map[string]interface{}{
		"model":      req.Model,
		"messages":   msgs,
		"max_tokens": maxTokens,
		"stream":     true,
	}

	if len(req.Tools) > 0 {
		tools := make([]map[string]interface{}, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = map[string]interface{}{
				"type": "function",
				"function": map[string]interface{}{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			}
		}
		body["tools"] = tools
	}

	return body
}

func (p *OpenAIProvider) doRequest(ctx context.Context, body interface{}) (io.ReadCloser, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Kind: KindAPIRequestFailed, Provider: p.name, Message: "marshal request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Kind: KindAPIRequestFailed, Provider: p.name, Message: "create request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, netError(p.name, err)
	}

	logRateLimitHeaders(p.name, resp.Header)

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, classifyStatus(p.name, resp.StatusCode, string(respBody))
	}
	return resp.Body, nil
}

// logRateLimitHeaders surfaces the rate-limit trio when present.
func logRateLimitHeaders(provider string, h http.Header) {
	limit := h.Get("X-Ratelimit-Limit-Requests")
	remaining := h.Get("X-Ratelimit-Remaining-Requests")
	reset := h.Get("X-Ratelimit-Reset-Requests")
	if limit == "" && remaining == "" && reset == "" {
		return
	}
	slog.Debug("provider rate limits",
		"provider", provider, "limit", limit, "remaining", remaining, "reset", reset)
}

// --- OpenAI streaming wire types ---

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}
