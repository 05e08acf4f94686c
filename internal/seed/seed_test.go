package seed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solux-card/solux_card/internal/collateral"
	"github.com/solux-card/solux_card/internal/ledger"
	"github.com/solux-card/solux_card/internal/market"
)

func TestDefaultSeedBuildsSession(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)

	feed, err := f.Feed()
	require.NoError(t, err)
	eth, ok := feed.Lookup(market.ETH)
	require.True(t, ok)
	assert.True(t, eth.Price.Equal(decimal.RequireFromString("3450.20")))
	assert.Len(t, feed.Quotes(), 4)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s, err := f.Ledger(now)
	require.NoError(t, err)

	l := ledger.New(feed, ledger.WithSeed(s))
	snap := l.Snapshot()
	assert.Equal(t, "0x71C837C78383B3698008882D3D3D3D4e5B71c837", snap.WalletAddress)
	assert.True(t, snap.CreditUsed.Equal(decimal.RequireFromString("1250.45")))
	assert.True(t, snap.TotalLimit.Equal(collateral.CreditLimit(snap.Collateral)))
	require.Len(t, snap.Transactions, 5)
	assert.Equal(t, "Apple Store", snap.Transactions[0].Merchant)
	assert.Equal(t, now.Add(-time.Hour), snap.Transactions[0].Timestamp)
	assert.NotEmpty(t, snap.Transactions[0].ID)

	require.NotNil(t, snap.Security.SpendingLimit)
	assert.True(t, snap.Security.SpendingLimit.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, []string{"192.168.1.1"}, snap.Security.IPWhitelist)
	require.Len(t, snap.Security.AuditLog, 2)
	assert.Equal(t, "Login from new device", snap.Security.AuditLog[0].Action)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	doc := `
wallet_address: "0xabc"
collateral:
  - { asset: sol, quantity: "10", price: "100" }
credit_used: "50"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	s, err := f.Ledger(time.Now())
	require.NoError(t, err)
	require.Len(t, s.Collateral, 1)
	assert.Equal(t, market.SOL, s.Collateral[0].Asset)
	assert.True(t, s.Collateral[0].LTV.Equal(collateral.DefaultLTV))
	assert.Nil(t, s.Security.SpendingLimit)
}

func TestSeedRejectsUnknownAsset(t *testing.T) {
	f, err := Parse([]byte(`collateral: [{ asset: DOGE, quantity: "1", price: "1" }]`))
	require.NoError(t, err)
	_, err = f.Ledger(time.Now())
	assert.ErrorIs(t, err, market.ErrUnsupportedAsset)
}

func TestSeedRejectsBadAge(t *testing.T) {
	f, err := Parse([]byte(`transactions: [{ merchant: X, amount: "1", age: "yesterday" }]`))
	require.NoError(t, err)
	_, err = f.Ledger(time.Now())
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
