package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/mossline/beacon/internal/config"
	"github.com/mossline/beacon/internal/memory"
	"github.com/mossline/beacon/internal/providers"
	"github.com/mossline/beacon/internal/sessions"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and storage status",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			rows := [][2]string{
				{"Config", resolveConfigPath()},
				{"Model", cfg.Agents.Defaults.Model},
				{"Embedding model", embeddingModelName(cfg)},
				{"Provider route", providerRoute(cfg)},
				{"OpenRouter key", maskKey(cfg.Providers.OpenRouter.APIKey)},
				{"Anthropic key", maskKey(cfg.Providers.Anthropic.APIKey)},
				{"OpenAI key", maskKey(cfg.Providers.OpenAI.APIKey)},
				{"Groq key", maskKey(cfg.Providers.Groq.APIKey)},
				{"Telegram bot", configuredLabel(cfg.Tools.Telegram.BotToken != "")},
				{"Sessions", sessionsSummary(cfg)},
				{"Vector store", vectorSummary(cfg)},
			}

			width := 0
			for _, row := range rows {
				if w := runewidth.StringWidth(row[0]); w > width {
					width = w
				}
			}
			for _, row := range rows {
				fmt.Printf("%s  %s\n", runewidth.FillRight(row[0], width), row[1])
			}
		},
	}
}

func embeddingModelName(cfg *config.Config) string {
	if cfg.Agents.Defaults.EmbeddingModel == "" {
		return "local"
	}
	return cfg.Agents.Defaults.EmbeddingModel
}

func providerRoute(cfg *config.Config) string {
	p, err := providers.ForModel(cfg, cfg.Agents.Defaults.Model)
	if err != nil {
		return fmt.Sprintf("unavailable (%v)", err)
	}
	return p.Name()
}

func maskKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func sessionsSummary(cfg *config.Config) string {
	dir := config.ExpandHome(cfg.Sessions.Storage)
	store, err := sessions.NewStore(dir)
	if err != nil {
		return fmt.Sprintf("%s (unavailable: %v)", dir, err)
	}
	ids, err := store.List()
	if err != nil {
		return fmt.Sprintf("%s (unavailable: %v)", dir, err)
	}
	return fmt.Sprintf("%s (%d sessions)", dir, len(ids))
}

func vectorSummary(cfg *config.Config) string {
	path := config.ExpandHome(cfg.Memory.Path)
	store, err := memory.NewStore(path)
	if err != nil {
		return fmt.Sprintf("%s (unavailable: %v)", path, err)
	}
	return fmt.Sprintf("%s (%d entries)", path, store.Len())
}
