package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mossline/beacon/internal/agent"
)

func agentCmd() *cobra.Command {
	var sessionID string
	var noRag bool

	cmd := &cobra.Command{
		Use:   "agent [message]",
		Short: "Run the agent on a single message and print the reply",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			message := args[0]
			if err := agent.ValidatePrompt(message); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			mem, err := agent.OpenMemory(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			shutdown := installShutdown()
			ag, err := agent.New(cfg, mem, sessionID, !noRag, shutdown)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			reply, err := ag.Run(context.Background(), message)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(reply)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "cli", "session id to run under")
	cmd.Flags().BoolVar(&noRag, "no-rag", false, "disable memory tools for this run")
	return cmd
}
