package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/bissquit/quotedesk/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "quotedesk",
		Short:        "Quote request site with a staff dashboard",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFile(opts.envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedAdminCmd(opts),
	)

	return root
}

// loadEnvFile exports the variables of path, overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Overload(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("env file not found, skipping", "path", path)
		return nil
	}
	return err
}

func loadConfig(opts *options) (*config.Config, error) {
	return config.Load(opts.configPath)
}
