package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bissquit/quotedesk/internal/app"
	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/identity"
	identitypostgres "github.com/bissquit/quotedesk/internal/identity/postgres"
	"github.com/spf13/cobra"
)

func newSeedAdminCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator account from admin.* settings",
		Long: "Create the administrator account from admin.email, admin.password and admin.name.\n" +
			"An existing account with the same e-mail is left untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			app.InitLogger(cfg.Log)

			if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
				return errors.New("admin.email and admin.password are required")
			}

			db, err := app.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			// Seeding never issues tokens.
			service := identity.NewService(identitypostgres.NewRepository(db), nil)

			user, created, err := service.EnsureUser(cmd.Context(), identity.SeedInput{
				Email:    cfg.Admin.Email,
				Password: cfg.Admin.Password,
				Name:     cfg.Admin.Name,
				Role:     domain.RoleAdmin,
			})
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}

			if created {
				slog.Info("administrator created", "user_id", user.ID, "email", user.Email)
			} else {
				slog.Info("administrator already exists", "user_id", user.ID, "email", user.Email)
			}
			return nil
		},
	}
}
