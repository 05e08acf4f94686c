package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solux-card/solux_card/internal/audit"
	"github.com/solux-card/solux_card/internal/collateral"
	"github.com/solux-card/solux_card/internal/logging"
	"github.com/solux-card/solux_card/internal/market"
)

// Ledger is the single writer of account state: collateral, credit used,
// freeze flag, transaction history, security settings and the audit log.
// Every mutation holds the lock for its whole duration, so callers never
// observe a partially applied operation.
type Ledger struct {
	mu     sync.RWMutex
	feed   market.Feed
	now    func() time.Time
	logger *slog.Logger

	walletAddress string
	holdings      []collateral.Holding
	creditUsed    decimal.Decimal
	totalLimit    decimal.Decimal
	frozen        bool
	transactions  []Transaction
	security      SecuritySettings
	audit         *audit.Log
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for audit and transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger mirrors audit entries into logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithSeed starts the ledger from a prepared state.
func WithSeed(seed Seed) Option {
	return func(l *Ledger) {
		l.walletAddress = seed.WalletAddress
		l.holdings = append([]collateral.Holding(nil), seed.Collateral...)
		l.creditUsed = seed.CreditUsed
		l.transactions = append([]Transaction(nil), seed.Transactions...)
		for i := range l.transactions {
			if l.transactions[i].ID == "" {
				l.transactions[i].ID = newTransactionID(l.transactions[i].Timestamp)
			}
		}
		l.security = copySecurity(seed.Security)
		// seeded entries arrive newest first; replay oldest first
		for i := len(seed.Security.AuditLog) - 1; i >= 0; i-- {
			l.audit.Append(seed.Security.AuditLog[i])
		}
		l.security.AuditLog = nil
	}
}

// New builds a ledger valuing deposits against feed.
func New(feed market.Feed, opts ...Option) *Ledger {
	l := &Ledger{
		feed:   feed,
		now:    time.Now,
		logger: logging.Discard(),
		audit:  audit.New(audit.DefaultCapacity),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.creditUsed.IsNegative() {
		l.creditUsed = decimal.Zero
	}
	l.totalLimit = collateral.CreditLimit(l.holdings)
	return l
}

// Deposit pledges amount of asset. An existing holding grows and takes the
// current feed price; a new holding is created at the default LTV. The
// credit limit is recomputed before the lock is released.
func (l *Ledger) Deposit(_ context.Context, asset market.AssetType, amount decimal.Decimal) (collateral.Holding, error) {
	if err := CheckAmount(amount); err != nil {
		return collateral.Holding{}, err
	}
	asset, err := market.ParseAsset(string(asset))
	if err != nil {
		return collateral.Holding{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	quote, quoted := l.lookup(asset)

	idx := l.holdingIndex(asset)
	if idx >= 0 {
		h := &l.holdings[idx]
		h.Quantity = h.Quantity.Add(amount)
		if quoted {
			h.Price = quote.Price
		}
	} else {
		h := collateral.Holding{Asset: asset, Quantity: amount, LTV: collateral.DefaultLTV}
		if quoted {
			h.Price = quote.Price
		}
		l.holdings = append(l.holdings, h)
		idx = len(l.holdings) - 1
	}

	l.totalLimit = collateral.CreditLimit(l.holdings)
	l.appendAudit(fmt.Sprintf("Deposited %s %s", amount.String(), asset))

	return l.holdings[idx], nil
}

// ToggleFreeze flips the freeze flag and returns the new value. Every call
// flips; callers wanting a specific state must check it first.
func (l *Ledger) ToggleFreeze(_ context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.frozen = !l.frozen
	if l.frozen {
		l.appendAudit("Emergency Freeze activated")
	} else {
		l.appendAudit("Card unfrozen")
	}
	return l.frozen
}

// UpdateSecuritySetting stores value under key. Only the Go type of value is
// checked: a zero or negative spending limit is accepted and blocks every
// authorization.
func (l *Ledger) UpdateSecuritySetting(_ context.Context, key SettingKey, value any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch key {
	case SettingBiometric, SettingTwoFactor:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects a boolean", ErrSettingType, key)
		}
		if key == SettingBiometric {
			l.security.BiometricEnabled = b
		} else {
			l.security.TwoFactorEnabled = b
		}
	case SettingSpendingLimit:
		limit, err := spendingLimitValue(value)
		if err != nil {
			return err
		}
		l.security.SpendingLimit = limit
	case SettingIPWhitelist:
		ips, ok := value.([]string)
		if !ok {
			return fmt.Errorf("%w: %s expects a list of strings", ErrSettingType, key)
		}
		l.security.IPWhitelist = append([]string(nil), ips...)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}

	l.appendAudit(fmt.Sprintf("Updated security: %s", key))
	return nil
}

// RecordTransaction prepends tx to history and draws its amount on the
// credit line. It is only called for approved charges.
func (l *Ledger) RecordTransaction(_ context.Context, tx Transaction) (Transaction, error) {
	if err := CheckAmount(tx.Amount); err != nil {
		return Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.record(tx), nil
}

// Decider inspects the current state and returns the transaction to record.
// Returning ok == false leaves the ledger untouched.
type Decider func(View) (tx Transaction, ok bool)

// Commit runs decide and records its transaction under one lock, so no
// other mutation can change the state between the check and the write.
func (l *Ledger) Commit(_ context.Context, decide Decider) (Transaction, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := decide(l.view())
	if !ok {
		return Transaction{}, false, nil
	}
	if err := CheckAmount(tx.Amount); err != nil {
		return Transaction{}, false, err
	}
	return l.record(tx), true, nil
}

// View returns the current authorization inputs.
func (l *Ledger) View() View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view()
}

// Snapshot returns a deep copy of the account state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	security := copySecurity(l.security)
	security.AuditLog = l.audit.Entries()

	return Snapshot{
		WalletAddress: l.walletAddress,
		Collateral:    append(make([]collateral.Holding, 0, len(l.holdings)), l.holdings...),
		CreditUsed:    l.creditUsed,
		TotalLimit:    l.totalLimit,
		IsFrozen:      l.frozen,
		Transactions:  append(make([]Transaction, 0, len(l.transactions)), l.transactions...),
		Security:      security,
	}
}

// Feed exposes the price feed deposits are valued against.
func (l *Ledger) Feed() market.Feed { return l.feed }

func (l *Ledger) record(tx Transaction) Transaction {
	if tx.Timestamp.IsZero() {
		tx.Timestamp = l.now().UTC()
	}
	if tx.ID == "" {
		tx.ID = newTransactionID(tx.Timestamp)
	}
	if tx.Status == "" {
		tx.Status = StatusCompleted
	}

	l.transactions = append([]Transaction{tx}, l.transactions...)
	l.creditUsed = l.creditUsed.Add(tx.Amount)
	return tx
}

func (l *Ledger) view() View {
	return View{
		IsFrozen:      l.frozen,
		SpendingLimit: copyDecimal(l.security.SpendingLimit),
		CreditUsed:    l.creditUsed,
		TotalLimit:    l.totalLimit,
	}
}

func (l *Ledger) lookup(asset market.AssetType) (market.Quote, bool) {
	if l.feed == nil {
		return market.Quote{}, false
	}
	return l.feed.Lookup(asset)
}

func (l *Ledger) holdingIndex(asset market.AssetType) int {
	for i, h := range l.holdings {
		if h.Asset == asset {
			return i
		}
	}
	return -1
}

func (l *Ledger) appendAudit(action string) {
	entry := audit.Entry{Action: action, Timestamp: l.now().UTC()}
	l.audit.Append(entry)
	l.logger.Info("audit", slog.String("action", action))
}

func spendingLimitValue(value any) (*decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		return limitInRange(v)
	case *decimal.Decimal:
		if v == nil {
			return nil, nil
		}
		return limitInRange(*v)
	case float64:
		return limitInRange(decimal.NewFromFloat(v))
	case int:
		d := decimal.NewFromInt(int64(v))
		return &d, nil
	case int64:
		d := decimal.NewFromInt(v)
		return &d, nil
	default:
		return nil, fmt.Errorf("%w: %s expects a number or null", ErrSettingType, SettingSpendingLimit)
	}
}

// limitInRange accepts any sign, since zero and negative limits lock the
// card, but bounds the scale like transaction amounts.
func limitInRange(d decimal.Decimal) (*decimal.Decimal, error) {
	if !d.IsZero() && !inRange(d) {
		return nil, fmt.Errorf("%w: %s is outside the supported range", ErrSettingType, SettingSpendingLimit)
	}
	return &d, nil
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func copySecurity(s SecuritySettings) SecuritySettings {
	return SecuritySettings{
		BiometricEnabled: s.BiometricEnabled,
		TwoFactorEnabled: s.TwoFactorEnabled,
		SpendingLimit:    copyDecimal(s.SpendingLimit),
		IPWhitelist:      append(make([]string, 0, len(s.IPWhitelist)), s.IPWhitelist...),
		AuditLog:         append([]audit.Entry(nil), s.AuditLog...),
	}
}
