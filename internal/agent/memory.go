package agent

import (
	"context"

	"github.com/mossline/beacon/internal/config"
	"github.com/mossline/beacon/internal/memory"
)

// Memory bundles the vector store and embedder every agent shares. One
// Memory is opened per process and passed by reference to each agent, so
// the store's lock serializes concurrent writes and every agent reads the
// same entries. Opening a second store over the same file would let one
// agent's whole-file save clobber another's.
type Memory struct {
	Store *memory.Store
	Embed func(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenMemory loads the vector store at config.memory.path and selects the
// embedder: the deterministic local one unless an embedding model is
// configured.
func OpenMemory(cfg *config.Config) (*Memory, error) {
	store, err := memory.NewStore(config.ExpandHome(cfg.Memory.Path))
	if err != nil {
		return nil, err
	}

	var embedder memory.Embedder
	if cfg.Agents.Defaults.EmbeddingModel == "" || cfg.Agents.Defaults.EmbeddingModel == "local" {
		embedder = memory.NewLocalEmbedder()
	} else {
		embedder = memory.NewRemoteEmbedder(
			cfg.Agents.Defaults.EmbeddingModel,
			cfg.Providers.OpenAI.APIKey,
			cfg.Providers.OpenAI.APIBase,
		)
	}

	return &Memory{Store: store, Embed: embedder.Embed}, nil
}
