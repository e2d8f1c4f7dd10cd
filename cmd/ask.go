package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid0/corvid/internal/app"
	"github.com/corvid0/corvid/internal/config"
	"github.com/corvid0/corvid/internal/log"
)

// NewAskCmd creates the ask command (factory pattern).
func NewAskCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <conversation-id> <question>",
		Short: "Ask a question against a conversation's knowledge base",
		Long: `Ask runs one question through the agent. The model consults the
conversation's knowledge base first and falls back to web tools when the
knowledge base has nothing relevant.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cfg, logger, args[0], args[1])
		},
	}
}

func runAsk(cfg *config.Config, logger log.Logger, conversationID, question string) error {
	return withApp(cfg, logger, func(ctx context.Context, a *app.App) error {
		answer := a.Assistant.Ask(ctx, conversationID, question, nil)
		fmt.Println(answer)
		return nil
	})
}
