// Package seed loads the starting state of a card session from YAML.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/solux-card/solux_card/internal/audit"
	"github.com/solux-card/solux_card/internal/collateral"
	"github.com/solux-card/solux_card/internal/ledger"
	"github.com/solux-card/solux_card/internal/market"
)

//go:embed default.yaml
var defaultYAML []byte

// File is the seed document.
type File struct {
	WalletAddress string          `yaml:"wallet_address"`
	Quotes        []Quote         `yaml:"quotes"`
	Collateral    []Holding       `yaml:"collateral"`
	CreditUsed    decimal.Decimal `yaml:"credit_used"`
	Transactions  []Transaction   `yaml:"transactions"`
	Security      Security        `yaml:"security"`
}

// Quote seeds the static price feed.
type Quote struct {
	Asset     string          `yaml:"asset"`
	Price     decimal.Decimal `yaml:"price"`
	Change24h decimal.Decimal `yaml:"change_24h"`
}

// Holding seeds one collateral position.
type Holding struct {
	Asset    string          `yaml:"asset"`
	Quantity decimal.Decimal `yaml:"quantity"`
	Price    decimal.Decimal `yaml:"price"`
	LTV      decimal.Decimal `yaml:"ltv"`
}

// Transaction seeds history. Age is how long before load it happened,
// e.g. "24h".
type Transaction struct {
	Merchant string          `yaml:"merchant"`
	Amount   decimal.Decimal `yaml:"amount"`
	Age      string          `yaml:"age"`
	Category string          `yaml:"category"`
}

// AuditEntry seeds the audit log.
type AuditEntry struct {
	Action string `yaml:"action"`
	Age    string `yaml:"age"`
}

// Security seeds the security settings.
type Security struct {
	BiometricEnabled bool             `yaml:"biometric_enabled"`
	TwoFactorEnabled bool             `yaml:"two_factor_enabled"`
	SpendingLimit    *decimal.Decimal `yaml:"spending_limit"`
	IPWhitelist      []string         `yaml:"ip_whitelist"`
	AuditLog         []AuditEntry     `yaml:"audit_log"`
}

// Default returns the embedded demo session.
func Default() (File, error) {
	return Parse(defaultYAML)
}

// Load reads path, or the embedded default when path is empty.
func Load(path string) (File, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

// Feed builds a static feed from the seeded quotes.
func (f File) Feed() (*market.StaticFeed, error) {
	quotes := make([]market.Quote, 0, len(f.Quotes))
	for _, q := range f.Quotes {
		asset, err := market.ParseAsset(q.Asset)
		if err != nil {
			return nil, fmt.Errorf("seed quote: %w", err)
		}
		quotes = append(quotes, market.Quote{Asset: asset, Price: q.Price, Change24h: q.Change24h})
	}
	return market.NewStaticFeed(quotes...), nil
}

// Ledger converts the document into a ledger seed with timestamps relative
// to now.
func (f File) Ledger(now time.Time) (ledger.Seed, error) {
	s := ledger.Seed{
		WalletAddress: f.WalletAddress,
		CreditUsed:    f.CreditUsed,
		Security: ledger.SecuritySettings{
			BiometricEnabled: f.Security.BiometricEnabled,
			TwoFactorEnabled: f.Security.TwoFactorEnabled,
			SpendingLimit:    f.Security.SpendingLimit,
			IPWhitelist:      append([]string(nil), f.Security.IPWhitelist...),
		},
	}

	for _, h := range f.Collateral {
		asset, err := market.ParseAsset(h.Asset)
		if err != nil {
			return ledger.Seed{}, fmt.Errorf("seed collateral: %w", err)
		}
		ltv := h.LTV
		if ltv.IsZero() {
			ltv = collateral.DefaultLTV
		}
		s.Collateral = append(s.Collateral, collateral.Holding{
			Asset:    asset,
			Quantity: h.Quantity,
			Price:    h.Price,
			LTV:      ltv,
		})
	}

	for _, t := range f.Transactions {
		age, err := parseAge(t.Age)
		if err != nil {
			return ledger.Seed{}, fmt.Errorf("seed transaction %q: %w", t.Merchant, err)
		}
		s.Transactions = append(s.Transactions, ledger.Transaction{
			Merchant:  t.Merchant,
			Amount:    t.Amount,
			Timestamp: now.Add(-age).UTC(),
			Status:    ledger.StatusCompleted,
			Category:  t.Category,
		})
	}

	for _, e := range f.Security.AuditLog {
		age, err := parseAge(e.Age)
		if err != nil {
			return ledger.Seed{}, fmt.Errorf("seed audit entry %q: %w", e.Action, err)
		}
		s.Security.AuditLog = append(s.Security.AuditLog, audit.Entry{Action: e.Action, Timestamp: now.Add(-age).UTC()})
	}

	return s, nil
}

func parseAge(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	return time.ParseDuration(v)
}
