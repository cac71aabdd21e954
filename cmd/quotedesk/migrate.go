package main

import (
	"github.com/bissquit/quotedesk/internal/app"
	"github.com/bissquit/quotedesk/internal/pkg/postgres"
	"github.com/bissquit/quotedesk/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newMigrateDirectionCmd(opts, postgres.Up, "Apply all pending migrations"),
		newMigrateDirectionCmd(opts, postgres.Down, "Revert all applied migrations"),
	)
	return cmd
}

func newMigrateDirectionCmd(opts *options, direction postgres.Direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(direction),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			app.InitLogger(cfg.Log)

			return postgres.Migrate(migrations.FS, cfg.Database.URL, direction)
		},
	}
}
