package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid0/corvid/db"
	"github.com/corvid0/corvid/internal/config"
	"github.com/corvid0/corvid/internal/log"
)

// NewMigrateCmd creates the migrate command (factory pattern). It only
// touches the database, so no model provider is initialized.
func NewMigrateCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			fmt.Println("Database schema is up to date")
			return nil
		},
	}
}
