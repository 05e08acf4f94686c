package provider

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solux-card/solux_card/internal/logging"
	"github.com/solux-card/solux_card/internal/metrics"
)

// DefaultFallbackDelay precedes every simulated response.
const DefaultFallbackDelay = time.Second

const (
	opEnrollAccount = "enroll_account"
	opIssueCard     = "issue_card"
	opAuthorize     = "simulate_authorization"
)

// Source says where a Result's value came from.
type Source string

const (
	SourceLive      Source = "live"
	SourceSimulated Source = "simulated"
)

// Result is a successful gateway answer. Source is informational: callers
// must treat live and simulated values the same way.
type Result[T any] struct {
	Value  T      `json:"value"`
	Source Source `json:"source"`
}

// Live wraps a value returned by the provider.
func Live[T any](v T) Result[T] { return Result[T]{Value: v, Source: SourceLive} }

// Simulated wraps a locally synthesized value.
func Simulated[T any](v T) Result[T] { return Result[T]{Value: v, Source: SourceSimulated} }

// IsSimulated reports whether the value was synthesized locally.
func (r Result[T]) IsSimulated() bool { return r.Source == SourceSimulated }

// Backend is the provider API the gateway degrades around.
type Backend interface {
	CreateAccount(ctx context.Context, p Profile) (Account, error)
	CreateCard(ctx context.Context, accountToken string) (Card, error)
	SimulateAuthorization(ctx context.Context, cardToken string, amount int64, descriptor string) (Authorization, error)
}

// Gateway calls the provider and, when the call cannot complete, returns a
// structurally equivalent simulated response instead. Provider-reported
// errors (*APIError) are returned as errors and never simulated.
type Gateway struct {
	backend       Backend
	fallbackDelay time.Duration
	sleep         func(time.Duration)
	now           func() time.Time
	logger        *slog.Logger
	metrics       *metrics.Recorder
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithFallbackDelay sets the pause before a simulated response.
func WithFallbackDelay(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.fallbackDelay = d }
}

// WithGatewayLogger sets the logger used for fallback diagnostics.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// WithGatewayMetrics counts calls by source on r.
func WithGatewayMetrics(r *metrics.Recorder) GatewayOption {
	return func(g *Gateway) { g.metrics = r }
}

// NewGateway wraps backend with fallback simulation.
func NewGateway(backend Backend, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		backend:       backend,
		fallbackDelay: DefaultFallbackDelay,
		sleep:         time.Sleep,
		now:           time.Now,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnrollAccount enrolls the account holder described by p.
func (g *Gateway) EnrollAccount(ctx context.Context, p Profile) (Result[Account], error) {
	return call(ctx, g, opEnrollAccount,
		func(ctx context.Context) (Account, error) { return g.backend.CreateAccount(ctx, p) },
		func() Account {
			return Account{
				Token:              syntheticToken("act_"),
				State:              "ACTIVE",
				Type:               AccountTypeIndividual,
				Created:            g.now().UTC(),
				VerificationStatus: "APPROVED",
			}
		})
}

// IssueCard issues a virtual card for accountToken.
func (g *Gateway) IssueCard(ctx context.Context, accountToken string) (Result[Card], error) {
	return call(ctx, g, opIssueCard,
		func(ctx context.Context) (Card, error) { return g.backend.CreateCard(ctx, accountToken) },
		func() Card {
			return Card{
				Token:    syntheticToken("card_"),
				State:    "OPEN",
				Type:     CardTypeVirtual,
				LastFour: "4452",
				ExpMonth: "09",
				ExpYear:  "2028",
				Memo:     CardMemo,
			}
		})
}

// SimulateAuthorization runs a sandbox authorization of amount minor units.
func (g *Gateway) SimulateAuthorization(ctx context.Context, cardToken string, amount int64, merchantName string) (Result[Authorization], error) {
	return call(ctx, g, opAuthorize,
		func(ctx context.Context) (Authorization, error) {
			return g.backend.SimulateAuthorization(ctx, cardToken, amount, merchantName)
		},
		func() Authorization {
			return Authorization{
				Token:    syntheticToken("tx_"),
				Status:   "APPROVED",
				Amount:   amount,
				Merchant: Merchant{Name: merchantName, City: "Sandbox City", State: "NY"},
			}
		})
}

func call[T any](ctx context.Context, g *Gateway, op string, live func(context.Context) (T, error), simulate func() T) (Result[T], error) {
	v, err := live(ctx)
	if err == nil {
		g.metrics.ProviderCall(op, string(SourceLive))
		return Live(v), nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		g.metrics.ProviderCall(op, "error")
		g.logger.Error("provider rejected request",
			slog.String("operation", op),
			slog.Int("status", apiErr.Status),
			slog.String("message", apiErr.Message),
		)
		return Result[T]{}, err
	}

	g.logger.Warn("provider unreachable, using simulated response",
		slog.String("operation", op),
		slog.Any("error", err),
	)
	// Fallbacks always run to completion; the delay is not cancellable.
	g.sleep(g.fallbackDelay)
	g.metrics.ProviderCall(op, string(SourceSimulated))
	return Simulated(simulate()), nil
}

const syntheticTokenLen = 15

// syntheticToken returns prefix followed by 15 lowercase base-36 characters
// drawn from a random UUID.
func syntheticToken(prefix string) string {
	id := uuid.New()
	s := new(big.Int).SetBytes(id[:]).Text(36)
	if len(s) < syntheticTokenLen {
		s = strings.Repeat("0", syntheticTokenLen-len(s)) + s
	}
	return prefix + s[len(s)-syntheticTokenLen:]
}
