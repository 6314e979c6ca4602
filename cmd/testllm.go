package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mossline/beacon/internal/providers"
)

func testLLMCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "test-llm",
		Short: "Send a test prompt through the configured provider",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if model == "" {
				model = cfg.Agents.Defaults.Model
			}

			provider, err := providers.ForModel(cfg, model)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Provider: %s | Model: %s\n\n", provider.Name(), model)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			start := time.Now()
			resp, err := provider.ChatStream(ctx, providers.ChatRequest{
				Model: model,
				Messages: []providers.Message{
					{Role: "user", Content: "Reply with a single short sentence confirming you can hear me."},
				},
				MaxTokens: 100,
			}, func(chunk providers.StreamChunk) {
				if chunk.Content != "" {
					fmt.Print(chunk.Content)
				}
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("\n\nFinish reason: %s | Took: %s\n", resp.FinishReason, time.Since(start).Round(time.Millisecond))
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model to test (default: configured model)")
	return cmd
}
