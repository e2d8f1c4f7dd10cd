package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid0/corvid/internal/app"
	"github.com/corvid0/corvid/internal/config"
	"github.com/corvid0/corvid/internal/log"
)

// NewClearCmd creates the clear command (factory pattern).
func NewClearCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <conversation-id>",
		Short: "Delete a conversation's knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cfg, logger, args[0])
		},
	}
}

func runClear(cfg *config.Config, logger log.Logger, conversationID string) error {
	return withApp(cfg, logger, func(ctx context.Context, a *app.App) error {
		if a.Assistant.ClearKnowledgeBase(ctx, conversationID) {
			fmt.Printf("Knowledge base for conversation %q cleared\n", conversationID)
		} else {
			fmt.Printf("Could not clear knowledge base for conversation %q, see logs\n", conversationID)
		}
		return nil
	})
}
