package collateral

import (
	"github.com/shopspring/decimal"

	"github.com/solux-card/solux_card/internal/market"
)

// DefaultLTV is applied to holdings created by a first deposit.
var DefaultLTV = decimal.RequireFromString("0.7")

// atRiskUtilization marks the point where the dashboard flags the credit line.
var atRiskUtilization = decimal.RequireFromString("0.85")

// Holding is one pledged asset. Price is the unit price captured at the
// last deposit, not the live quote.
type Holding struct {
	Asset    market.AssetType `json:"asset"`
	Quantity decimal.Decimal  `json:"quantity"`
	Price    decimal.Decimal  `json:"price"`
	LTV      decimal.Decimal  `json:"ltv"`
}

// Contribution is the credit this holding adds to the limit.
func (h Holding) Contribution() decimal.Decimal {
	return h.Quantity.Mul(h.Price).Mul(h.LTV)
}

// TotalValue marks every holding to the feed price, falling back to the
// stored price when the feed has no quote for the asset.
func TotalValue(holdings []Holding, feed market.Feed) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		price := h.Price
		if feed != nil {
			if q, ok := feed.Lookup(h.Asset); ok {
				price = q.Price
			}
		}
		total = total.Add(h.Quantity.Mul(price))
	}
	return total
}

// CreditLimit sums quantity * stored price * ltv. Limits only move on
// deposits, never on price ticks.
func CreditLimit(holdings []Holding) decimal.Decimal {
	limit := decimal.Zero
	for _, h := range holdings {
		limit = limit.Add(h.Contribution())
	}
	return limit
}

// Health is the ratio of credit limit to credit used.
type Health struct {
	Ratio     decimal.Decimal `json:"ratio"`
	Unbounded bool            `json:"unbounded"`
}

// Healthy is reported when nothing is drawn on the credit line.
var Healthy = Health{Unbounded: true}

// String renders the ratio with two decimals, or "∞" when unbounded.
func (h Health) String() string {
	if h.Unbounded {
		return "∞"
	}
	return h.Ratio.StringFixed(2)
}

// HealthFactor returns totalLimit / creditUsed, or Healthy when creditUsed is zero.
func HealthFactor(totalLimit, creditUsed decimal.Decimal) Health {
	if !creditUsed.IsPositive() {
		return Healthy
	}
	return Health{Ratio: totalLimit.Div(creditUsed)}
}

// Utilization is the fraction of the limit in use. A zero limit reports zero.
func Utilization(totalLimit, creditUsed decimal.Decimal) decimal.Decimal {
	if !totalLimit.IsPositive() {
		return decimal.Zero
	}
	return creditUsed.Div(totalLimit)
}

// AtRisk reports whether utilization has crossed the warning threshold.
func AtRisk(totalLimit, creditUsed decimal.Decimal) bool {
	return Utilization(totalLimit, creditUsed).GreaterThan(atRiskUtilization)
}
