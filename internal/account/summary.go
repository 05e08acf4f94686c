package account

import (
	"github.com/shopspring/decimal"

	"github.com/solux-card/solux_card/internal/collateral"
	"github.com/solux-card/solux_card/internal/ledger"
	"github.com/solux-card/solux_card/internal/market"
)

// Summary is the dashboard view derived from a snapshot.
type Summary struct {
	TotalValue      decimal.Decimal `json:"total_value"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	CreditUsed      decimal.Decimal `json:"credit_used"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	HealthFactor    string          `json:"health_factor"`
	Utilization     decimal.Decimal `json:"utilization"`
	AtRisk          bool            `json:"at_risk"`
}

// Summarize values snap against feed.
func Summarize(snap ledger.Snapshot, feed market.Feed) Summary {
	return Summary{
		TotalValue:      collateral.TotalValue(snap.Collateral, feed),
		CreditLimit:     snap.TotalLimit,
		CreditUsed:      snap.CreditUsed,
		AvailableCredit: snap.View().AvailableCredit(),
		HealthFactor:    collateral.HealthFactor(snap.TotalLimit, snap.CreditUsed).String(),
		Utilization:     collateral.Utilization(snap.TotalLimit, snap.CreditUsed).Round(4),
		AtRisk:          collateral.AtRisk(snap.TotalLimit, snap.CreditUsed),
	}
}
