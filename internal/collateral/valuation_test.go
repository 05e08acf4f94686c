package collateral

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/solux-card/solux_card/internal/market"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreditLimitUsesStoredPrice(t *testing.T) {
	holdings := []Holding{
		{Asset: market.ETH, Quantity: d("2"), Price: d("2000"), LTV: d("0.7")},
	}
	assert.True(t, CreditLimit(holdings).Equal(d("2800")), "got %s", CreditLimit(holdings))

	holdings[0].Quantity = d("3")
	holdings[0].Price = d("2500")
	assert.True(t, CreditLimit(holdings).Equal(d("5250")), "got %s", CreditLimit(holdings))
}

func TestCreditLimitSumsContributions(t *testing.T) {
	holdings := []Holding{
		{Asset: market.ETH, Quantity: d("1.5"), Price: d("3000"), LTV: d("0.7")},
		{Asset: market.USDC, Quantity: d("1000"), Price: d("1"), LTV: d("0.9")},
		{Asset: market.SOL, Quantity: d("0"), Price: d("140"), LTV: d("0.5")},
	}
	want := d("1.5").Mul(d("3000")).Mul(d("0.7")).Add(d("900"))
	assert.True(t, CreditLimit(holdings).Equal(want))
	assert.True(t, CreditLimit(nil).IsZero())
}

func TestTotalValueFallsBackToStoredPrice(t *testing.T) {
	feed := market.NewStaticFeed(market.Quote{Asset: market.ETH, Price: d("2500")})
	holdings := []Holding{
		{Asset: market.ETH, Quantity: d("2"), Price: d("2000"), LTV: d("0.7")},
		{Asset: market.WBTC, Quantity: d("0.1"), Price: d("60000"), LTV: d("0.7")},
	}

	got := TotalValue(holdings, feed)
	assert.True(t, got.Equal(d("11000")), "got %s", got)

	// pure: same inputs, same output
	assert.True(t, TotalValue(holdings, feed).Equal(got))
	assert.True(t, TotalValue(holdings, nil).Equal(d("10000")))
}

func TestHealthFactor(t *testing.T) {
	assert.Equal(t, Healthy, HealthFactor(d("1000"), decimal.Zero))
	assert.Equal(t, "∞", HealthFactor(d("1000"), decimal.Zero).String())

	h := HealthFactor(d("1000"), d("400"))
	assert.False(t, h.Unbounded)
	assert.True(t, h.Ratio.Equal(d("2.5")))
	assert.Equal(t, "2.50", h.String())

	assert.Equal(t, h, HealthFactor(d("1000"), d("400")))
}

func TestUtilization(t *testing.T) {
	assert.True(t, Utilization(decimal.Zero, d("10")).IsZero())
	assert.True(t, Utilization(d("1000"), d("250")).Equal(d("0.25")))
	assert.False(t, AtRisk(d("1000"), d("850")))
	assert.True(t, AtRisk(d("1000"), d("851")))
}
