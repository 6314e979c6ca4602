package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mossline/beacon/internal/config"
)

// Version is set at build time via -ldflags "-X github.com/mossline/beacon/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Beacon — conversational agent runtime",
	Long:  "Beacon runs a tool-calling LLM agent behind multiple front-ends: an interactive console, a one-shot CLI, and a Telegram bot, with local semantic memory.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json or $BEACON_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(consoleCmd())
	rootCmd.AddCommand(telegramCmd())
	rootCmd.AddCommand(vectorDBCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(testLLMCmd())
	rootCmd.AddCommand(versionCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("beacon %s\n", Version)
		},
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("BEACON_CONFIG"); v != "" {
		return v
	}
	return "config.json"
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// installShutdown returns a flag that flips when SIGINT or SIGTERM arrives.
func installShutdown() *atomic.Bool {
	var flag atomic.Bool
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		slog.Info("shutdown requested")
		flag.Store(true)
	}()
	return &flag
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
