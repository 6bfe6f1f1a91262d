// Package commands implements portalctl, the operator CLI for the budget portal.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"budget-portal/internal/config"
	"budget-portal/internal/infrastructure/db"
	"budget-portal/internal/infrastructure/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type rootOptions struct {
	envFile string
	verbose bool
}

// Execute runs the root command
func Execute(ctx context.Context, out io.Writer) error {
	cmd := newRootCommand(out)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:          "portalctl",
		Short:        "Operator tooling for the budget program portal",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log SQL and debug output")

	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newUserCommand(opts))
	return rootCmd
}

func (o *rootOptions) logger() zerolog.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return logger.New(level, "console", os.Stderr)
}

// openDB loads configuration and connects using only the database settings.
func (o *rootOptions) openDB() (*gorm.DB, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if err := cfg.ValidateDB(); err != nil {
		return nil, err
	}
	gdb, err := db.Open(cfg.DBDriver, cfg.DSN(), db.WithLogger(logger.Component(o.logger(), "gorm")))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return gdb, nil
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
