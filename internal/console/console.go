package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mossline/beacon/internal/agent"
	"github.com/mossline/beacon/internal/config"
)

// Console is an interactive REPL against a single agent session. Replies
// stream to Out as the model produces them.
type Console struct {
	cfg      *config.Config
	mem      *agent.Memory
	shutdown *atomic.Bool

	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func New(cfg *config.Config, mem *agent.Memory, shutdown *atomic.Bool) *Console {
	return &Console{
		cfg:      cfg,
		mem:      mem,
		shutdown: shutdown,
		In:       os.Stdin,
		Out:      os.Stdout,
		Err:      os.Stderr,
	}
}

// Run reads prompts line by line until EOF, "exit", or shutdown. "/new"
// starts a fresh session.
func (c *Console) Run(ctx context.Context) error {
	sessionID := newSessionID()
	ag, err := c.newAgent(sessionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Err, "\nBeacon Console\n")
	fmt.Fprintf(c.Err, "Model: %s | Provider: %s\n", c.cfg.Agents.Defaults.Model, ag.Provider())
	fmt.Fprintf(c.Err, "Session: %s\n", sessionID)
	fmt.Fprintf(c.Err, "Type \"exit\" to quit, \"/new\" for a new session\n\n")

	scanner := bufio.NewScanner(c.In)
	for {
		if ctx.Err() != nil || (c.shutdown != nil && c.shutdown.Load()) {
			fmt.Fprintln(c.Err, "\nGoodbye!")
			return nil
		}

		fmt.Fprint(c.Err, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(c.Err, "\nGoodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(c.Err, "Goodbye!")
			return nil
		}
		if input == "/new" {
			sessionID = newSessionID()
			ag, err = c.newAgent(sessionID)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Err, "New session: %s\n\n", sessionID)
			continue
		}

		if err := agent.ValidatePrompt(input); err != nil {
			fmt.Fprintf(c.Err, "Error: %v\n\n", err)
			continue
		}

		if _, err := ag.Run(ctx, input); err != nil {
			if errors.Is(err, agent.ErrInterrupted) {
				fmt.Fprintln(c.Err, "\nInterrupted. Goodbye!")
				return nil
			}
			fmt.Fprintf(c.Err, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprint(c.Out, "\n\n")
	}
}

func (c *Console) newAgent(sessionID string) (*agent.Agent, error) {
	ag, err := agent.New(c.cfg, c.mem, sessionID, true, c.shutdown)
	if err != nil {
		return nil, err
	}
	ag.OnChunk = func(text string) {
		fmt.Fprint(c.Out, text)
	}
	return ag, nil
}

func newSessionID() string {
	return "console-" + uuid.NewString()[:8]
}
