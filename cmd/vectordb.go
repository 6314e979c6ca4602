package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mossline/beacon/internal/config"
	"github.com/mossline/beacon/internal/memory"
)

func vectorDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vector-db",
		Short: "Inspect and manage the local vector store",
	}
	cmd.AddCommand(vectorDBListCmd())
	cmd.AddCommand(vectorDBAddCmd())
	cmd.AddCommand(vectorDBSearchCmd())
	cmd.AddCommand(vectorDBStatsCmd())
	return cmd
}

func openVectorStore() (*config.Config, *memory.Store, memory.Embedder) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := memory.NewStore(config.ExpandHome(cfg.Memory.Path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
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
	return cfg, store, embedder
}

func vectorDBListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored entries",
		Run: func(cmd *cobra.Command, args []string) {
			_, store, _ := openVectorStore()

			entries := store.Entries()
			if len(entries) == 0 {
				fmt.Println("Vector store is empty.")
				return
			}
			for i, e := range entries {
				fmt.Printf("%4d  %s\n", i, truncateLine(e.Text, 100))
			}
		},
	}
}

func vectorDBAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [text]",
		Short: "Embed and store a text",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, store, embedder := openVectorStore()

			vecs, err := embedder.Embed(context.Background(), []string{args[0]})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			store.Add(args[0], vecs[0])
			if err := store.Save(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Stored entry %d.\n", store.Len()-1)
		},
	}
}

func vectorDBSearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search stored entries by similarity",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, store, embedder := openVectorStore()

			vecs, err := embedder.Embed(context.Background(), []string{args[0]})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			results := store.Search(vecs[0], topK)
			if len(results) == 0 {
				fmt.Println("No results.")
				return
			}
			for i, r := range results {
				fmt.Printf("%d. (%.3f) %s\n", i+1, r.Score, truncateLine(r.Text, 100))
			}
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 3, "number of results")
	return cmd
}

func vectorDBStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vector store statistics",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, store, embedder := openVectorStore()

			path := config.ExpandHome(cfg.Memory.Path)
			var size int64
			if info, err := os.Stat(path); err == nil {
				size = info.Size()
			}

			fmt.Printf("Path:      %s\n", path)
			fmt.Printf("Entries:   %d\n", store.Len())
			fmt.Printf("Embedder:  %s\n", embedder.Name())
			fmt.Printf("Dimension: %d\n", memory.Dimension)
			fmt.Printf("File size: %d bytes\n", size)
		},
	}
}

func truncateLine(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
