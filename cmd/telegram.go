package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mossline/beacon/internal/agent"
	"github.com/mossline/beacon/internal/telegram"
)

func telegramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram bot front-end",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if cfg.Tools.Telegram.BotToken == "" {
				fmt.Fprintln(os.Stderr, "Error: tools.telegram.botToken is not configured.")
				os.Exit(1)
			}
			if !cfg.HasAnyProvider() {
				fmt.Fprintln(os.Stderr, "Error: no provider API key configured. Set one in config.json or via environment.")
				os.Exit(1)
			}

			client, err := telegram.NewClient(cfg.Tools.Telegram.BotToken)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			mem, err := agent.OpenMemory(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			shutdown := installShutdown()
			dispatcher := telegram.NewDispatcher(cfg, client, mem, shutdown)
			if err := dispatcher.Run(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}
