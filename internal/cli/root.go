// Package cli wires the examhub commands: the HTTP server and the admin tools
// that work directly against the database.
package cli

import (
	"github.com/lshigami/examhub/config"
	"github.com/lshigami/examhub/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "examhub",
		Short:         "Exam authoring, bulk question import and grading service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().String("env-file", "", "path to a .env file (default ./.env)")
	_ = viper.BindPFlag("ENV_FILE", cmd.PersistentFlags().Lookup("env-file"))

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newStructuresCmd())
	return cmd
}

// loadConfig reads the configuration and sets up the global logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}
