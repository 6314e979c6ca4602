package tools

import (
	"context"

	"github.com/mossline/beacon/internal/config"
	"github.com/mossline/beacon/internal/memory"
)

// Context carries the shared runtime dependencies tools draw on. One
// Context is built per agent and handed to every tool constructor.
type Context struct {
	// Config is a snapshot of the loaded configuration.
	Config *config.Config

	// Store is the shared vector store.
	Store *memory.Store

	// Embed produces embeddings for texts, using whichever embedder the
	// agent was configured with.
	Embed func(ctx context.Context, texts []string) ([][]float32, error)

	// SpawnSubagent runs a one-shot child agent with its own context
	// window and returns its final answer. Nil when the host front-end
	// does not support subagents.
	SpawnSubagent func(ctx context.Context, task string) (string, error)
}
