package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mossline/beacon/internal/agent"
	"github.com/mossline/beacon/internal/config"
)

const (
	// cacheMaxIdle is how long a chat's agent survives without traffic.
	cacheMaxIdle = 30 * time.Minute
	// cleanupInterval is how often idle agents are swept.
	cleanupInterval = 30 * time.Minute
	// typingInterval keeps the typing indicator alive while the model works.
	typingInterval = 5 * time.Second
	// pollErrorBackoff spaces retries after a failed getUpdates call.
	pollErrorBackoff = time.Second

	invalidPromptReply = "Your message contains characters I can't accept. Please rephrase it without special symbols."
	failureReply       = "Sorry, something went wrong while processing your message. Please try again."
	farewellReply      = "Bot is shutting down."
)

// runner is the slice of the agent the dispatcher drives.
type runner interface {
	Run(ctx context.Context, text string) (string, error)
}

type cacheEntry struct {
	agent    runner
	lastUsed time.Time
}

// mailbox is an unbounded FIFO queue for one chat. Pushing never blocks
// the poller; the chat's worker drains in arrival order.
type mailbox struct {
	mu    sync.Mutex
	queue []string
	wake  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) push(text string) {
	m.mu.Lock()
	m.queue = append(m.queue, text)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) pop() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return "", false
	}
	text := m.queue[0]
	m.queue = m.queue[1:]
	return text, true
}

// Dispatcher pulls Telegram updates, routes each text message to its
// chat's agent, and streams replies back in order. Distinct chats run in
// parallel; within one chat messages are strictly FIFO.
type Dispatcher struct {
	cfg      *config.Config
	client   *Client
	shutdown *atomic.Bool
	newAgent func(sessionID string) (runner, error)
	now      func() time.Time

	mu        sync.Mutex
	agents    map[int64]*cacheEntry
	mailboxes map[int64]*mailbox

	offset  atomic.Int64
	done    chan struct{}
	workers errgroup.Group
}

// NewDispatcher wires a dispatcher over the given client and the shared
// memory. Agents are created per chat id, with the chat id stringified as
// the session id; all of them index into the one store.
func NewDispatcher(cfg *config.Config, client *Client, mem *agent.Memory, shutdown *atomic.Bool) *Dispatcher {
	d := &Dispatcher{
		cfg:       cfg,
		client:    client,
		shutdown:  shutdown,
		now:       time.Now,
		agents:    make(map[int64]*cacheEntry),
		mailboxes: make(map[int64]*mailbox),
		done:      make(chan struct{}),
	}
	d.newAgent = func(sessionID string) (runner, error) {
		return agent.New(cfg, mem, sessionID, true, shutdown)
	}
	return d
}

// Offset reports the current poll offset.
func (d *Dispatcher) Offset() int64 { return d.offset.Load() }

// Run polls until the shutdown flag flips or ctx is cancelled, then drains
// workers and sends a best-effort farewell to the configured default chat.
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.Info("telegram dispatcher started")

	d.workers.Go(func() error {
		d.cleanupLoop(d.done)
		return nil
	})

	for !d.stopRequested(ctx) {
		updates, err := d.client.Poll(ctx, d.offset.Load())
		if err != nil {
			if d.stopRequested(ctx) {
				break
			}
			// Keep the offset; re-receiving the batch is correct here.
			slog.Warn("poll failed", "error", err)
			d.sleep(ctx, pollErrorBackoff)
			continue
		}

		var maxID int64 = -1
		for _, u := range updates {
			id := int64(u.UpdateID)
			if id > maxID {
				maxID = id
			}
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			d.enqueue(u.Message.Chat.ID, u.Message.Text)
		}
		if maxID >= 0 {
			d.offset.Store(maxID + 1)
		}
	}

	close(d.done)
	if err := d.workers.Wait(); err != nil {
		slog.Warn("worker exited with error", "error", err)
	}
	d.sendFarewell()

	slog.Info("telegram dispatcher stopped")
	return nil
}

func (d *Dispatcher) stopRequested(ctx context.Context) bool {
	return ctx.Err() != nil || (d.shutdown != nil && d.shutdown.Load())
}

func (d *Dispatcher) sleep(ctx context.Context, dur time.Duration) {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// enqueue hands a message to the chat's mailbox, starting a worker for
// chats seen for the first time.
func (d *Dispatcher) enqueue(chatID int64, text string) {
	d.mu.Lock()
	mb, ok := d.mailboxes[chatID]
	if !ok {
		mb = newMailbox()
		d.mailboxes[chatID] = mb
		d.workers.Go(func() error {
			d.worker(chatID, mb)
			return nil
		})
	}
	d.mu.Unlock()

	mb.push(text)
}

func (d *Dispatcher) worker(chatID int64, mb *mailbox) {
	for {
		text, ok := mb.pop()
		if !ok {
			select {
			case <-mb.wake:
				continue
			case <-d.done:
				return
			}
		}
		d.handle(chatID, text)
	}
}

// handle processes one message end to end. The context is deliberately
// detached from the poll loop: an in-flight provider call is governed by
// its own timeouts, and the agent observes the shutdown flag at iteration
// boundaries.
func (d *Dispatcher) handle(chatID int64, text string) {
	ctx := context.Background()

	if err := agent.ValidatePrompt(text); err != nil {
		slog.Warn("rejected prompt", "chat", chatID, "error", err)
		d.send(ctx, chatID, invalidPromptReply)
		return
	}

	ag, err := d.agentFor(chatID)
	if err != nil {
		slog.Error("agent construction failed", "chat", chatID, "error", err)
		d.send(ctx, chatID, failureReply)
		return
	}

	typingDone := make(chan struct{})
	go d.indicateTyping(ctx, chatID, typingDone)

	reply, err := ag.Run(ctx, text)
	close(typingDone)

	switch {
	case errors.Is(err, agent.ErrInterrupted):
		slog.Info("run interrupted by shutdown", "chat", chatID)
		if reply != "" {
			d.send(ctx, chatID, reply)
		}
	case err != nil:
		slog.Error("agent run failed", "chat", chatID, "error", err)
		d.send(ctx, chatID, failureReply)
	case reply != "":
		d.send(ctx, chatID, reply)
	}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string) {
	if err := d.client.SendText(ctx, chatID, text); err != nil {
		slog.Error("send failed", "chat", chatID, "error", err)
	}
}

// indicateTyping keeps a typing action visible until done closes.
func (d *Dispatcher) indicateTyping(ctx context.Context, chatID int64, done <-chan struct{}) {
	if err := d.client.SendTyping(ctx, chatID); err != nil {
		slog.Debug("typing action failed", "chat", chatID, "error", err)
	}

	ticker := time.NewTicker(typingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := d.client.SendTyping(ctx, chatID); err != nil {
				slog.Debug("typing action failed", "chat", chatID, "error", err)
			}
		}
	}
}

// agentFor returns the chat's cached agent, creating one on first use.
func (d *Dispatcher) agentFor(chatID int64) (runner, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.agents[chatID]; ok {
		entry.lastUsed = d.now()
		return entry.agent, nil
	}

	ag, err := d.newAgent(strconv.FormatInt(chatID, 10))
	if err != nil {
		return nil, err
	}
	d.agents[chatID] = &cacheEntry{agent: ag, lastUsed: d.now()}
	return ag, nil
}

func (d *Dispatcher) cleanupLoop(done <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			d.evictIdle(d.now())
		}
	}
}

// evictIdle removes agents untouched for cacheMaxIdle or longer. A fresh
// agent is built on the chat's next message and reloads its session.
func (d *Dispatcher) evictIdle(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for chatID, entry := range d.agents {
		if now.Sub(entry.lastUsed) >= cacheMaxIdle {
			slog.Info("evicting idle agent", "chat", chatID)
			delete(d.agents, chatID)
		}
	}
}

// sendFarewell posts a best-effort shutdown notice to the default chat.
func (d *Dispatcher) sendFarewell() {
	raw := d.cfg.Tools.Telegram.ChatID
	if raw == "" {
		return
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.Warn("invalid default chat id", "chatId", raw)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.client.SendText(ctx, chatID, farewellReply); err != nil {
		slog.Warn("farewell failed", "chat", chatID, "error", err)
	}
}
