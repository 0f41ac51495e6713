package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kkkkikiki/punchcard/internal/config"
	"github.com/kkkkikiki/punchcard/internal/database"
	"github.com/kkkkikiki/punchcard/internal/logging"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "punchcard-admin",
		Short:         "Operator tooling for the punchcard loyalty service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(resolveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: config, a logger in ctx and the pool
type env struct {
	ctx context.Context
	cfg *config.Config
	db  *database.DB
}

func setup(cmd *cobra.Command) (*env, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(cfg.App, "punchcard-admin")
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx)

	db, err := database.NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &env{ctx: ctx, cfg: cfg, db: db}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		zerolog.Ctx(e.ctx).Error().Err(err).Msg("Error closing database connections")
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			return e.db.Migrate(e.ctx)
		},
	}
}
