// Package cmd implements the corvid command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corvid0/corvid/internal/app"
	"github.com/corvid0/corvid/internal/config"
	"github.com/corvid0/corvid/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "corvid",
	Short: "Corvid - a retrieval-augmented research assistant",
	Long: `Corvid answers questions by combining a per-conversation knowledge base
with web search, crawling, and page extraction tools.

Ingest documents with 'corvid ingest', then ask questions with 'corvid ask'.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(log.Config{})

	rootCmd.AddCommand(
		NewIngestCmd(cfg, logger),
		NewAskCmd(cfg, logger),
		NewClearCmd(cfg, logger),
		NewMigrateCmd(cfg, logger),
		NewVersionCmd(cfg),
	)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withApp runs fn with a fully wired application, tearing it down afterwards.
func withApp(cfg *config.Config, logger log.Logger, fn func(context.Context, *app.App) error) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	return fn(ctx, a)
}
