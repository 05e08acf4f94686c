package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/solux-card/solux_card/internal/authorization"
	"github.com/solux-card/solux_card/internal/card"
)

type swipeFlags struct {
	merchant string
	amount   string
	category string
	count    int
	freeze   bool
}

func newSwipeCmd(g *globalFlags) *cobra.Command {
	f := &swipeFlags{}
	cmd := &cobra.Command{
		Use:   "swipe",
		Short: "Attempt card charges against the seeded credit line",
		Long: `Swipe attempts one or more charges. Merchant and amount are picked at
random unless given. Declines are printed with their reason.`,
		Example: `  soluxctl swipe
  soluxctl swipe --merchant Shell --amount 42.10
  soluxctl swipe --count 5 --freeze`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.count < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			var fixed *decimal.Decimal
			if f.amount != "" {
				amt, err := decimal.NewFromString(f.amount)
				if err != nil {
					return fmt.Errorf("bad amount %q: %w", f.amount, err)
				}
				fixed = &amt
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			if f.freeze {
				s.Ledger.ToggleFreeze(cmd.Context())
			}

			decisions := make([]authorization.Decision, 0, f.count)
			for i := 0; i < f.count; i++ {
				sw := swipeFrom(s.Cards.RandomSwipe(), f, fixed)
				dec, err := s.Cards.Attempt(cmd.Context(), sw)
				if err != nil {
					return err
				}
				decisions = append(decisions, dec)
			}
			return printJSON(cmd, map[string]any{
				"decisions":        decisions,
				"available_credit": s.Ledger.View().AvailableCredit(),
			})
		},
	}
	cmd.Flags().StringVarP(&f.merchant, "merchant", "m", "", "merchant name (default: random)")
	cmd.Flags().StringVarP(&f.amount, "amount", "n", "", "charge amount (default: random)")
	cmd.Flags().StringVar(&f.category, "category", card.DefaultCategory, "transaction category")
	cmd.Flags().IntVarP(&f.count, "count", "c", 1, "number of swipes")
	cmd.Flags().BoolVar(&f.freeze, "freeze", false, "freeze the card before swiping")
	return cmd
}

func swipeFrom(sw card.Swipe, f *swipeFlags, amount *decimal.Decimal) card.Swipe {
	if f.merchant != "" {
		sw.Merchant = f.merchant
	}
	if amount != nil {
		sw.Amount = *amount
	}
	sw.Category = f.category
	return sw
}
