package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mossline/beacon/internal/config"
	"github.com/mossline/beacon/internal/providers"
	"github.com/mossline/beacon/internal/sessions"
	"github.com/mossline/beacon/internal/tools"
)

// maxIterations bounds how many model turns a single Run may take.
const maxIterations = 10

// fingerprintMax caps how much of the first response is echoed back in the
// loop warning.
const fingerprintMax = 100

// ErrInterrupted is returned when a shutdown request stops a run at an
// iteration boundary. The session is still saved with whatever was
// committed to the context.
var ErrInterrupted = errors.New("interrupted")

const defaultSystemPrompt = `You are Beacon, a helpful personal assistant.
Be concise and direct. When long-term memory tools are available, use
vector_search to recall relevant facts before answering and vector_upsert
to store information worth remembering.`

// Agent drives one conversation against one model, executing tool calls
// between model turns. An Agent is bound to a single session id; its
// context is append-only and persisted after every completed run.
type Agent struct {
	cfg        *config.Config
	sessionID  string
	ragEnabled bool

	provider providers.Provider
	retryer  *providers.Retryer
	registry *tools.Registry
	sessions *sessions.Store
	mem      *Memory
	shutdown *atomic.Bool

	mu       sync.Mutex
	messages []providers.Message

	// OnChunk receives streamed text fragments as the model produces them.
	OnChunk func(text string)
}

// New builds an Agent for a session over the process-wide shared Memory.
// Prior history is loaded when config.agents.loadChatHistory is set;
// memory tools are registered when ragEnabled and RAG is not disabled in
// config.
func New(cfg *config.Config, mem *Memory, sessionID string, ragEnabled bool, shutdown *atomic.Bool) (*Agent, error) {
	provider, err := providers.ForModel(cfg, cfg.Agents.Defaults.Model)
	if err != nil {
		return nil, err
	}

	sessionStore, err := sessions.NewStore(config.ExpandHome(cfg.Sessions.Storage))
	if err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:        cfg,
		sessionID:  sessionID,
		ragEnabled: ragEnabled && mem != nil && !cfg.Agents.Defaults.DisableRag,
		provider:   provider,
		retryer:    providers.NewRetryer(shutdown),
		registry:   tools.NewRegistry(),
		sessions:   sessionStore,
		mem:        mem,
		shutdown:   shutdown,
	}

	if a.ragEnabled {
		tc := &tools.Context{
			Config: cfg,
			Store:  mem.Store,
			Embed:  mem.Embed,
		}
		a.registry.Register(tools.NewVectorUpsert(tc))
		a.registry.Register(tools.NewVectorSearch(tc))
	}

	if cfg.Agents.Defaults.LoadChatHistory {
		history, err := sessionStore.Load(sessionID)
		if err != nil && !errors.Is(err, sessions.ErrNotFound) {
			return nil, err
		}
		a.messages = trimHistory(history, cfg.Agents.Defaults.MaxChatHistory)
	}

	return a, nil
}

// Provider reports the name of the provider this agent talks to.
func (a *Agent) Provider() string { return a.provider.Name() }

// SessionID reports the session this agent is bound to.
func (a *Agent) SessionID() string { return a.sessionID }

// Run executes one user turn: appends the user message, iterates model
// turns executing tool calls between them, and returns the final assistant
// text. The bound is 10 iterations; hitting it returns cleanly with
// whatever the model last produced. A shutdown observed at an iteration
// boundary or during a retry backoff returns ErrInterrupted after saving
// the session.
func (a *Agent) Run(ctx context.Context, text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	runID := uuid.NewString()[:8]
	slog.Info("run started", "session", a.sessionID, "run", runID)

	a.ensureSystemPrompt()
	a.messages = append(a.messages, providers.Message{Role: "user", Content: text})
	runStart := len(a.messages)

	var fingerprints []string
	var finalText string
	interrupted := false

	for iterations := 0; iterations < maxIterations; iterations++ {
		if a.shutdown != nil && a.shutdown.Load() {
			interrupted = true
			break
		}

		payload := a.outboundPayload(iterations, fingerprints)

		resp, err := a.retryer.Do(ctx, func() (*providers.ChatResponse, error) {
			return a.provider.ChatStream(ctx, providers.ChatRequest{
				Messages:  payload,
				Tools:     a.registry.Definitions(),
				Model:     a.cfg.Agents.Defaults.Model,
				MaxTokens: a.cfg.Agents.Defaults.MaxTokens,
			}, a.chunkHandler())
		})
		if errors.Is(err, providers.ErrShutdown) {
			// Backoff sleep aborted; same exit as the boundary check.
			interrupted = true
			break
		}
		if err != nil {
			return "", err
		}

		a.messages = append(a.messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		fingerprints = append(fingerprints, fingerprint(resp))
		finalText = resp.Content

		if len(resp.ToolCalls) == 0 {
			break
		}

		for _, call := range resp.ToolCalls {
			slog.Debug("executing tool", "session", a.sessionID, "tool", call.Name)
			a.messages = append(a.messages, providers.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    a.executeTool(ctx, call),
			})
		}
	}

	if err := a.sessions.Save(a.sessionID, a.messages); err != nil {
		slog.Error("session save failed", "session", a.sessionID, "error", err)
	}

	if interrupted {
		slog.Info("run interrupted", "session", a.sessionID, "run", runID)
		return finalText, ErrInterrupted
	}

	if a.ragEnabled {
		a.indexConversation(ctx, runStart)
	}
	slog.Info("run finished", "session", a.sessionID, "run", runID)
	return finalText, nil
}

// outboundPayload builds the filtered message list for one provider call.
// Assistant messages with no content and no tool calls stay in the
// persistent context for auditability but are dropped here. The loop
// warning is scratch; it never enters the persistent context.
func (a *Agent) outboundPayload(iterations int, fingerprints []string) []providers.Message {
	payload := make([]providers.Message, 0, len(a.messages)+1)
	for _, m := range a.messages {
		if m.Role == "assistant" && m.Content == "" && len(m.ToolCalls) == 0 {
			continue
		}
		payload = append(payload, m)
	}

	if iterations > 1 && len(fingerprints) > 0 {
		payload = append(payload, providers.Message{
			Role: "system",
			Content: fmt.Sprintf(
				"iteration %d; first response was: '%s'. Do not repeat yourself; work toward a final answer.",
				iterations+1, truncateText(fingerprints[0], fingerprintMax)),
		})
	}
	return payload
}

// executeTool dispatches one tool call. Failures and unknown tools become
// tool-result text so the model can recover; they never abort the run.
func (a *Agent) executeTool(ctx context.Context, call providers.ToolCall) string {
	tool, ok := a.registry.Get(call.Name)
	if !ok {
		slog.Warn("model requested unknown tool", "session", a.sessionID, "tool", call.Name)
		return "Error: tool not found"
	}

	result, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		slog.Warn("tool execution failed", "session", a.sessionID, "tool", call.Name, "error", err)
		return fmt.Sprintf("Error executing tool %s: %v", call.Name, err)
	}
	return result
}

// indexConversation upserts this run's assistant turns, each prefixed by
// its preceding user turn, into the vector store. Entries with assistant
// text shorter than 10 characters are skipped. Indexing failures are
// logged, never propagated.
func (a *Agent) indexConversation(ctx context.Context, runStart int) {
	var lastUser string
	if runStart > 0 {
		for i := runStart - 1; i >= 0; i-- {
			if a.messages[i].Role == "user" {
				lastUser = a.messages[i].Content
				break
			}
		}
	}

	var texts []string
	for _, m := range a.messages[runStart:] {
		switch m.Role {
		case "user":
			lastUser = m.Content
		case "assistant":
			if len(m.Content) < 10 {
				continue
			}
			entry := m.Content
			if lastUser != "" {
				entry = "User: " + lastUser + "\nAssistant: " + m.Content
			}
			texts = append(texts, entry)
		}
	}
	if len(texts) == 0 {
		return
	}

	vecs, err := a.mem.Embed(ctx, texts)
	if err != nil {
		slog.Warn("conversation indexing failed", "session", a.sessionID, "error", err)
		return
	}
	for i, t := range texts {
		a.mem.Store.Add(t, vecs[i])
	}
	if err := a.mem.Store.Save(); err != nil {
		slog.Warn("vector store save failed", "session", a.sessionID, "error", err)
	}
}

func (a *Agent) ensureSystemPrompt() {
	if len(a.messages) > 0 && a.messages[0].Role == "system" {
		return
	}
	a.messages = append([]providers.Message{
		{Role: "system", Content: defaultSystemPrompt},
	}, a.messages...)
}

func (a *Agent) chunkHandler() func(providers.StreamChunk) {
	if a.OnChunk == nil {
		return nil
	}
	return func(c providers.StreamChunk) {
		if c.Content != "" {
			a.OnChunk(c.Content)
		}
	}
}

// Messages returns a copy of the persistent context.
func (a *Agent) Messages() []providers.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]providers.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// fingerprint summarizes one model turn for the loop warning.
func fingerprint(resp *providers.ChatResponse) string {
	if resp.Content != "" {
		return resp.Content
	}
	if len(resp.ToolCalls) > 0 {
		names := make([]string, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			names[i] = tc.Name
		}
		return "Tool calls: " + strings.Join(names, ", ")
	}
	return ""
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// trimHistory keeps the leading system prompt plus the most recent
// messages up to max. max <= 0 disables trimming.
func trimHistory(history []providers.Message, max int) []providers.Message {
	if max <= 0 || len(history) <= max {
		return history
	}

	if history[0].Role == "system" {
		trimmed := make([]providers.Message, 0, max)
		trimmed = append(trimmed, history[0])
		trimmed = append(trimmed, history[len(history)-(max-1):]...)
		return trimmed
	}
	return history[len(history)-max:]
}
