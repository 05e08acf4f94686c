package cmd

import (
	"github.com/spf13/cobra"

	"github.com/solux-card/solux_card/internal/account"
)

func newAccountCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Print the seeded account and its dashboard summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			snap := s.Ledger.Snapshot()
			return printJSON(cmd, map[string]any{
				"account": snap,
				"summary": account.Summarize(snap, s.Feed),
			})
		},
	}
}

func newMarketCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "List market quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"quotes": s.Feed.Quotes()})
		},
	}
}
