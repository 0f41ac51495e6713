package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kkkkikiki/punchcard/internal/loyalty"
	"github.com/kkkkikiki/punchcard/internal/notify"
	"github.com/kkkkikiki/punchcard/internal/repository"
	"github.com/kkkkikiki/punchcard/internal/seed"
)

var (
	seedMigrate bool
	seedNotify  bool
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [fixture.yaml]",
		Short: "Load merchants, programs and customers from a YAML fixture",
		Long: `Load demo data through the loyalty engine.

Customers join through the same identifier resolution a scanned QR code
uses, so a seeded database exercises the full join path.

Examples:
  punchcard-admin seed fixtures/demo.yaml
  punchcard-admin seed fixtures/demo.yaml --migrate --notify`,
		Args: cobra.ExactArgs(1),
		RunE: runSeed,
	}

	cmd.Flags().BoolVar(&seedMigrate, "migrate", false, "apply the schema before seeding")
	cmd.Flags().BoolVar(&seedNotify, "notify", false, "send notifications through the configured sinks")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()

	fixture, err := seed.Load(f)
	if err != nil {
		return err
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if seedMigrate {
		if err := e.db.Migrate(e.ctx); err != nil {
			return err
		}
	}

	var opts []loyalty.Option
	if seedNotify {
		sink, closer := notify.FromConfig(e.cfg.Notify)
		defer closer.Close()
		opts = append(opts, loyalty.WithSink(sink))
	}

	engine := loyalty.NewEngine(repository.NewPostgresStore(e.db.Postgres), e.cfg.App.FrontendBaseURL, opts...)
	report, err := fixture.Apply(e.ctx, engine)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d merchants, %d programs, %d customers, %d joins, %d stamps\n",
		report.Merchants, report.Programs, report.Customers, report.Joins, report.Stamps)
	return nil
}
