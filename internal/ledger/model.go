package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solux-card/solux_card/internal/audit"
	"github.com/solux-card/solux_card/internal/collateral"
)

var (
	// ErrInvalidAmount is returned for non-positive deposit or charge amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnknownSetting indicates the security setting key is not recognised.
	ErrUnknownSetting = errors.New("unknown security setting")

	// ErrSettingType indicates the value does not have the setting's type.
	ErrSettingType = errors.New("invalid security setting value type")
)

// Amounts must have an exponent within [minAmountExp, maxAmountExp] and at
// most maxAmountDigits significant digits, so arithmetic under the ledger
// lock stays bounded.
const (
	minAmountExp    = -18
	maxAmountExp    = 30
	maxAmountDigits = 40
)

// CheckAmount returns ErrInvalidAmount unless amount is positive and within
// the supported scale.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !inRange(amount) {
		return fmt.Errorf("%w: outside the supported range", ErrInvalidAmount)
	}
	return nil
}

func inRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp >= minAmountExp && exp <= maxAmountExp && d.NumDigits() <= maxAmountDigits
}

// Status is the lifecycle state of a card transaction.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusDeclined  Status = "DECLINED"
)

// Transaction is an approved charge against the credit line.
type Transaction struct {
	ID            string          `json:"id"`
	Merchant      string          `json:"merchant"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	Status        Status          `json:"status"`
	Category      string          `json:"category"`
	ProviderToken string          `json:"provider_token,omitempty"`
	Simulated     bool            `json:"simulated,omitempty"`
}

// SettingKey names a security setting.
type SettingKey string

const (
	SettingBiometric     SettingKey = "biometricEnabled"
	SettingTwoFactor     SettingKey = "twoFactorEnabled"
	SettingSpendingLimit SettingKey = "spendingLimit"
	SettingIPWhitelist   SettingKey = "ipWhitelist"
)

// SecuritySettings holds the card's security controls. A nil SpendingLimit
// means no per-transaction cap; zero or negative limits block every charge.
type SecuritySettings struct {
	BiometricEnabled bool             `json:"biometric_enabled"`
	TwoFactorEnabled bool             `json:"two_factor_enabled"`
	SpendingLimit    *decimal.Decimal `json:"spending_limit"`
	IPWhitelist      []string         `json:"ip_whitelist"`
	AuditLog         []audit.Entry    `json:"audit_log"`
}

// Snapshot is a point-in-time copy of the account. Mutating it has no
// effect on the ledger.
type Snapshot struct {
	WalletAddress string               `json:"wallet_address"`
	Collateral    []collateral.Holding `json:"collateral"`
	CreditUsed    decimal.Decimal      `json:"credit_used"`
	TotalLimit    decimal.Decimal      `json:"total_limit"`
	IsFrozen      bool                 `json:"is_frozen"`
	Transactions  []Transaction        `json:"transactions"`
	Security      SecuritySettings     `json:"security"`
}

// View is the subset of state an authorization decision needs.
type View struct {
	IsFrozen      bool
	SpendingLimit *decimal.Decimal
	CreditUsed    decimal.Decimal
	TotalLimit    decimal.Decimal
}

// View narrows the snapshot to the authorization inputs.
func (s Snapshot) View() View {
	return View{
		IsFrozen:      s.IsFrozen,
		SpendingLimit: s.Security.SpendingLimit,
		CreditUsed:    s.CreditUsed,
		TotalLimit:    s.TotalLimit,
	}
}

// AvailableCredit is the unused part of the limit, floored at zero.
func (v View) AvailableCredit() decimal.Decimal {
	avail := v.TotalLimit.Sub(v.CreditUsed)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

// Seed describes the initial state of a session.
type Seed struct {
	WalletAddress string
	Collateral    []collateral.Holding
	CreditUsed    decimal.Decimal
	Transactions  []Transaction
	Security      SecuritySettings
}
