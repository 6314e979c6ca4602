package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mossline/beacon/internal/agent"
	"github.com/mossline/beacon/internal/console"
)

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start an interactive chat session",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !cfg.HasAnyProvider() {
				fmt.Fprintln(os.Stderr, "Error: no provider API key configured. Set one in config.json or via environment.")
				os.Exit(1)
			}

			mem, err := agent.OpenMemory(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			shutdown := installShutdown()
			if err := console.New(cfg, mem, shutdown).Run(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}
