package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/corvid0/corvid/internal/app"
	"github.com/corvid0/corvid/internal/config"
	"github.com/corvid0/corvid/internal/log"
)

// NewIngestCmd creates the ingest command (factory pattern).
func NewIngestCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <conversation-id> <file>",
		Short: "Add a document to a conversation's knowledge base",
		Long: `Ingest reads a document, splits it into chunks, embeds them, and stores
them in the conversation's knowledge base. Supported formats: .txt, .md,
.markdown, .csv, .log, .json.

Re-ingesting the same file replaces its previous chunks.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cfg, logger, args[0], args[1])
		},
	}
}

func runIngest(cfg *config.Config, logger log.Logger, conversationID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	return withApp(cfg, logger, func(ctx context.Context, a *app.App) error {
		count, err := a.Assistant.Ingest(ctx, conversationID, data, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		fmt.Printf("Ingested %s into conversation %q (%d chunks)\n", filepath.Base(path), conversationID, count)
		return nil
	})
}
