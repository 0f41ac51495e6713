package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kkkkikiki/punchcard/internal/loyalty"
	"github.com/kkkkikiki/punchcard/internal/repository"
)

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [identifier]",
		Short: "Show which merchant and program an identifier or join link refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			engine := loyalty.NewEngine(repository.NewPostgresStore(e.db.Postgres), e.cfg.App.FrontendBaseURL)
			res, err := engine.Resolve(e.ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "merchant: %s\n", res.MerchantID)
			if res.LoyaltyProgramID != "" {
				fmt.Fprintf(out, "program:  %s\n", res.LoyaltyProgramID)
				fmt.Fprintf(out, "link:     %s\n", loyalty.JoinLink(e.cfg.App.FrontendBaseURL, res.LoyaltyProgramID))
			} else {
				fmt.Fprintf(out, "link:     %s\n", loyalty.JoinLink(e.cfg.App.FrontendBaseURL, res.MerchantID))
			}
			return nil
		},
	}
}
