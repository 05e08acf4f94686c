package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/solux-card/solux_card/internal/account"
	"github.com/solux-card/solux_card/internal/market"
)

func newDepositCmd(g *globalFlags) *cobra.Command {
	var asset, amount string
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Pledge collateral and print the new credit limit",
		Example: `  soluxctl deposit --asset ETH --amount 1.5
  soluxctl deposit --asset usdc --amount 250`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := market.ParseAsset(asset)
			if err != nil {
				return err
			}
			qty, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("bad amount %q: %w", amount, err)
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			holding, err := s.Ledger.Deposit(cmd.Context(), a, qty)
			if err != nil {
				return err
			}
			snap := s.Ledger.Snapshot()
			return printJSON(cmd, map[string]any{
				"holding": holding,
				"summary": account.Summarize(snap, s.Feed),
			})
		},
	}
	cmd.Flags().StringVarP(&asset, "asset", "a", "", "asset symbol (ETH, USDC, SOL, WBTC)")
	cmd.Flags().StringVarP(&amount, "amount", "n", "", "quantity to pledge")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
