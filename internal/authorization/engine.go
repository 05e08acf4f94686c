package authorization

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solux-card/solux_card/internal/ledger"
	"github.com/solux-card/solux_card/internal/logging"
	"github.com/solux-card/solux_card/internal/metrics"
)

// Reason explains a decline.
type Reason string

const (
	ReasonCardFrozen         Reason = "card frozen"
	ReasonSpendingLimit      Reason = "exceeds spending limit"
	ReasonInsufficientCredit Reason = "insufficient credit"
)

// Charge is a proposed card payment.
type Charge struct {
	Merchant string
	Amount   decimal.Decimal
	Category string

	// Provider fields are attached to the recorded transaction for display only.
	ProviderToken string
	Simulated     bool
}

// Decision is the final answer for one charge. Approved decisions carry
// the recorded transaction.
type Decision struct {
	Approved    bool                `json:"approved"`
	Reason      Reason              `json:"reason,omitempty"`
	Transaction *ledger.Transaction `json:"transaction,omitempty"`
}

// Evaluate applies the checks in order and returns the first failing
// reason. It reads v only.
func Evaluate(v ledger.View, amount decimal.Decimal) (bool, Reason) {
	if v.IsFrozen {
		return false, ReasonCardFrozen
	}
	if v.SpendingLimit != nil && amount.GreaterThan(*v.SpendingLimit) {
		return false, ReasonSpendingLimit
	}
	if v.CreditUsed.Add(amount).GreaterThan(v.TotalLimit) {
		return false, ReasonInsufficientCredit
	}
	return true, ""
}

// Engine decides charges against the ledger and records approvals.
type Engine struct {
	ledger  *ledger.Ledger
	metrics *metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithMetrics counts decisions on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds an engine writing approvals into l.
func NewEngine(l *ledger.Ledger, opts ...Option) *Engine {
	e := &Engine{ledger: l, logger: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check evaluates charge against the current state without recording anything.
func (e *Engine) Check(charge Charge) (Decision, error) {
	if err := ledger.CheckAmount(charge.Amount); err != nil {
		return Decision{}, err
	}
	ok, reason := Evaluate(e.ledger.View(), charge.Amount)
	return Decision{Approved: ok, Reason: reason}, nil
}

// Authorize makes the single, final decision for charge. Declines leave
// the ledger untouched and are not errors; approvals record a COMPLETED
// transaction atomically with the check.
func (e *Engine) Authorize(ctx context.Context, charge Charge) (Decision, error) {
	if err := ledger.CheckAmount(charge.Amount); err != nil {
		return Decision{}, err
	}

	var reason Reason
	tx, approved, err := e.ledger.Commit(ctx, func(v ledger.View) (ledger.Transaction, bool) {
		var ok bool
		ok, reason = Evaluate(v, charge.Amount)
		if !ok {
			return ledger.Transaction{}, false
		}
		return ledger.Transaction{
			Merchant:      charge.Merchant,
			Amount:        charge.Amount,
			Timestamp:     e.now().UTC(),
			Status:        ledger.StatusCompleted,
			Category:      charge.Category,
			ProviderToken: charge.ProviderToken,
			Simulated:     charge.Simulated,
		}, true
	})
	if err != nil {
		return Decision{}, err
	}

	e.metrics.Decision(approved, string(reason))

	if !approved {
		e.logger.Info("authorization declined",
			slog.String("merchant", charge.Merchant),
			slog.String("amount", charge.Amount.String()),
			slog.String("reason", string(reason)),
		)
		return Decision{Approved: false, Reason: reason}, nil
	}

	e.logger.Info("authorization approved",
		slog.String("transaction_id", tx.ID),
		slog.String("merchant", tx.Merchant),
		slog.String("amount", tx.Amount.String()),
	)
	return Decision{Approved: true, Transaction: &tx}, nil
}
