package card

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solux-card/solux_card/internal/authorization"
	"github.com/solux-card/solux_card/internal/ledger"
	"github.com/solux-card/solux_card/internal/logging"
	"github.com/solux-card/solux_card/internal/notification"
	"github.com/solux-card/solux_card/internal/provider"
)

// DefaultCategory labels swipes that do not name one.
const DefaultCategory = "Simulated"

// ReasonIssuerDeclined is returned when the card issuer refuses a charge
// the local checks would have approved.
const ReasonIssuerDeclined authorization.Reason = "declined by issuer"

// Merchants are picked from when a swipe names none.
var Merchants = []string{"Amazon", "Uber", "Shell", "Nike", "Netflix"}

// ErrNoCard is returned when no card has been issued yet.
var ErrNoCard = errors.New("no card issued")

// Authorizer asks the card issuer to authorize a charge.
type Authorizer interface {
	SimulateAuthorization(ctx context.Context, cardToken string, amount int64, merchantName string) (provider.Result[provider.Authorization], error)
}

// Swipe is one attempted card payment.
type Swipe struct {
	Merchant string
	Amount   decimal.Decimal
	Category string
}

// Service runs swipes through the authorization engine and, once a card
// has been issued, through the issuer's sandbox.
type Service struct {
	engine   *authorization.Engine
	issuer   Authorizer
	notifier notification.Notifier
	logger   *slog.Logger

	mu   sync.RWMutex
	card *provider.Card

	randMu sync.Mutex
	rand   *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer enables issuer-side authorization for issued cards.
func WithIssuer(a Authorizer) Option {
	return func(s *Service) { s.issuer = a }
}

// WithNotifier sends decline notices to n.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRandSource makes generated swipes deterministic.
func WithRandSource(src rand.Source) Option {
	return func(s *Service) { s.rand = rand.New(src) }
}

// NewService builds a swipe service on top of engine.
func NewService(engine *authorization.Engine, opts ...Option) *Service {
	s := &Service{
		engine: engine,
		logger: logging.Discard(),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach records the card issued at enrollment.
func (s *Service) Attach(c provider.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = &c
}

// Card returns the issued card.
func (s *Service) Card() (provider.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.card == nil {
		return provider.Card{}, ErrNoCard
	}
	return *s.card, nil
}

// RandomSwipe picks a merchant and an amount in [10, 210) with cent precision.
func (s *Service) RandomSwipe() Swipe {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	cents := 1000 + s.rand.Int63n(20000)
	return Swipe{
		Merchant: Merchants[s.rand.Intn(len(Merchants))],
		Amount:   decimal.New(cents, -2),
		Category: DefaultCategory,
	}
}

// Attempt makes the final decision for sw. Declines are returned as
// decisions, not errors. Issuer rejections (*provider.APIError) are errors
// and leave the ledger untouched. The issuer call runs outside the ledger
// lock, so a charge the issuer approved can still be declined locally; the
// provider token is logged when that happens.
func (s *Service) Attempt(ctx context.Context, sw Swipe) (authorization.Decision, error) {
	if err := ledger.CheckAmount(sw.Amount); err != nil {
		return authorization.Decision{}, err
	}
	if sw.Category == "" {
		sw.Category = DefaultCategory
	}
	charge := authorization.Charge{Merchant: sw.Merchant, Amount: sw.Amount, Category: sw.Category}

	if card, err := s.Card(); err == nil && s.issuer != nil {
		pre, err := s.engine.Check(charge)
		if err != nil {
			return authorization.Decision{}, err
		}
		if pre.Approved {
			cents, err := provider.MinorUnits(sw.Amount)
			if err != nil {
				return authorization.Decision{}, fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, err)
			}
			res, err := s.issuer.SimulateAuthorization(ctx, card.Token, cents, sw.Merchant)
			if err != nil {
				s.notify(ctx, notification.KindProviderRejected, card.Token, err.Error())
				return authorization.Decision{}, fmt.Errorf("issuer authorization: %w", err)
			}
			if res.Value.Status != "" && res.Value.Status != "APPROVED" {
				dec := authorization.Decision{Approved: false, Reason: ReasonIssuerDeclined}
				s.declined(ctx, sw, dec.Reason)
				return dec, nil
			}
			charge.ProviderToken = res.Value.Token
			charge.Simulated = res.IsSimulated()
		}
	}

	dec, err := s.engine.Authorize(ctx, charge)
	if err != nil {
		return authorization.Decision{}, err
	}
	if !dec.Approved {
		if charge.ProviderToken != "" {
			// the ledger changed while the issuer was authorizing
			s.logger.Warn("issuer authorization left unmatched",
				slog.String("provider_token", charge.ProviderToken),
				slog.Bool("simulated", charge.Simulated),
				slog.String("reason", string(dec.Reason)),
			)
		}
		s.declined(ctx, sw, dec.Reason)
	}
	return dec, nil
}

func (s *Service) declined(ctx context.Context, sw Swipe, reason authorization.Reason) {
	body := fmt.Sprintf("%s %s declined: %s", sw.Merchant, sw.Amount.StringFixed(2), reason)
	dest := ""
	if c, err := s.Card(); err == nil {
		dest = c.Token
	}
	s.notify(ctx, notification.KindSwipeDeclined, dest, body)
}

func (s *Service) notify(ctx context.Context, kind, dest, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: dest, Body: body}); err != nil {
		s.logger.Warn("notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}
