package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/solux-card/solux_card/internal/binding"
	"github.com/solux-card/solux_card/internal/logging"
	"github.com/solux-card/solux_card/internal/metrics"
	"github.com/solux-card/solux_card/internal/notification"
	"github.com/solux-card/solux_card/internal/provider"
)

// Gateway enrolls account holders and issues their cards.
type Gateway interface {
	EnrollAccount(ctx context.Context, p provider.Profile) (provider.Result[provider.Account], error)
	IssueCard(ctx context.Context, accountToken string) (provider.Result[provider.Card], error)
}

// Signup is collected on the signup step.
type Signup struct {
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
}

// PII is collected on the pii step and completes the profile.
type PII struct {
	DOB         string           `json:"dob" validate:"required,datetime=2006-01-02"`
	Address     provider.Address `json:"address"`
	SSNLastFour string           `json:"ssn_last_four" validate:"required,len=4,numeric"`
}

// Status describes the wizard for display.
type Status struct {
	State     State                              `json:"state"`
	Events    []Event                            `json:"events"`
	Email     string                             `json:"email,omitempty"`
	Account   *provider.Result[provider.Account] `json:"account,omitempty"`
	Card      *provider.Result[provider.Card]    `json:"card,omitempty"`
	LastError string                             `json:"last_error,omitempty"`
}

// Service drives one enrollment wizard session.
type Service struct {
	gateway  Gateway
	repo     Repository
	notifier notification.Notifier
	metrics  *metrics.Recorder
	logger   *slog.Logger
	onCard   func(provider.Card)
	hashCost int
	now      func() time.Time

	mu      sync.Mutex
	state   State
	signup  *Signup
	account *provider.Result[provider.Account]
	card    *provider.Result[provider.Card]
	lastErr string
}

// Option configures a Service.
type Option func(*Service)

// WithRepository stores completed enrollments in repo.
func WithRepository(repo Repository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithNotifier announces issued cards and provider rejections.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics counts finished enrollments on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// OnCardIssued registers fn to receive the card once enrollment succeeds.
func OnCardIssued(fn func(provider.Card)) Option {
	return func(s *Service) { s.onCard = fn }
}

// WithHashCost sets the bcrypt cost for SSN hashes.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService starts a wizard at the welcome step.
func NewService(gateway Gateway, opts ...Option) *Service {
	s := &Service{
		gateway:  gateway,
		repo:     NewMemoryRepository(),
		logger:   logging.Discard(),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
		state:    StateWelcome,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current wizard status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// Fire applies a navigation event. Signup and submission carry data and
// go through SignUp and Submit; provider outcomes are never fired by callers.
func (s *Service) Fire(_ context.Context, e Event) (Status, error) {
	switch e {
	case EventSignedUp, EventSubmit, EventVerified, EventFailed:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.status(), fmt.Errorf("%w: %q cannot be fired directly", ErrIllegalTransition, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(e); err != nil {
		return s.status(), err
	}
	if s.state == StateWelcome {
		s.clear()
	}
	return s.status(), nil
}

// SignUp records the account holder's name and email and moves to pii.
func (s *Service) SignUp(ctx context.Context, in Signup) (Status, error) {
	if err := binding.Validate(ctx, &in); err != nil {
		return s.Status(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(EventSignedUp); err != nil {
		return s.status(), err
	}
	s.signup = &in
	return s.status(), nil
}

// Submit completes the profile, enrolls the account and issues a card.
// A second Submit while verifying is rejected. Provider rejections send
// the wizard back to welcome.
func (s *Service) Submit(ctx context.Context, in PII) (Status, error) {
	profile, err := s.begin(ctx, in)
	if err != nil {
		return s.Status(), err
	}

	acct, err := s.gateway.EnrollAccount(ctx, profile)
	if err != nil {
		return s.fail(ctx, profile, fmt.Errorf("enroll account: %w", err))
	}
	card, err := s.gateway.IssueCard(ctx, acct.Value.Token)
	if err != nil {
		return s.fail(ctx, profile, fmt.Errorf("issue card: %w", err))
	}

	return s.complete(ctx, profile, in.SSNLastFour, acct, card)
}

func (s *Service) begin(ctx context.Context, in PII) (provider.Profile, error) {
	if err := binding.Validate(ctx, &in); err != nil {
		return provider.Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePII || s.signup == nil {
		return provider.Profile{}, fmt.Errorf("%w: %q in state %q", ErrIllegalTransition, EventSubmit, s.state)
	}

	profile := provider.Profile{
		FirstName:   s.signup.FirstName,
		LastName:    s.signup.LastName,
		Email:       s.signup.Email,
		DOB:         in.DOB,
		Address:     in.Address,
		SSNLastFour: in.SSNLastFour,
	}
	if err := binding.Validate(ctx, &profile); err != nil {
		return provider.Profile{}, err
	}

	if _, err := s.repo.FindByEmail(ctx, profile.Email); err == nil {
		return provider.Profile{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, ErrNotFound) {
		return provider.Profile{}, fmt.Errorf("lookup enrollment: %w", err)
	}

	if err := s.transition(EventSubmit); err != nil {
		return provider.Profile{}, err
	}
	s.lastErr = ""
	return profile, nil
}

func (s *Service) fail(ctx context.Context, profile provider.Profile, err error) (Status, error) {
	s.metrics.Enrollment("failed")
	s.logger.Warn("enrollment rejected", slog.String("email", profile.Email), slog.Any("error", err))

	var apiErr *provider.APIError
	if errors.As(err, &apiErr) && s.notifier != nil {
		msg := notification.Message{Kind: notification.KindProviderRejected, Destination: profile.Email, Body: apiErr.Message}
		if nerr := s.notifier.Send(ctx, msg); nerr != nil {
			s.logger.Warn("notification failed", slog.Any("error", nerr))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.transition(EventFailed)
	s.clear()
	s.lastErr = err.Error()
	return s.status(), err
}

func (s *Service) complete(ctx context.Context, profile provider.Profile, ssn string, acct provider.Result[provider.Account], card provider.Result[provider.Card]) (Status, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(ssn), s.hashCost)
	if err != nil {
		return s.fail(ctx, profile, fmt.Errorf("hash ssn: %w", err))
	}

	rec := Record{
		ID:           uuid.NewString(),
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Email:        profile.Email,
		SSNHash:      hash,
		AccountToken: acct.Value.Token,
		CardToken:    card.Value.Token,
		Simulated:    acct.IsSimulated() || card.IsSimulated(),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return s.fail(ctx, profile, fmt.Errorf("store enrollment: %w", err))
	}

	s.metrics.Enrollment("success")
	s.logger.Info("enrollment completed",
		slog.String("enrollment_id", rec.ID),
		slog.String("account_token", rec.AccountToken),
		slog.String("card_token", rec.CardToken),
		slog.Bool("simulated", rec.Simulated),
	)
	if s.onCard != nil {
		s.onCard(card.Value)
	}
	if s.notifier != nil {
		msg := notification.Message{
			Kind:        notification.KindCardIssued,
			Destination: profile.Email,
			Body:        fmt.Sprintf("Virtual card ending %s is ready", card.Value.LastFour),
		}
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.logger.Warn("notification failed", slog.Any("error", err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(EventVerified); err != nil {
		return s.status(), err
	}
	s.account = &acct
	s.card = &card
	return s.status(), nil
}

// VerifySSN reports whether ssnLastFour matches the stored hash for email.
func (s *Service) VerifySSN(ctx context.Context, email, ssnLastFour string) (bool, error) {
	rec, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword(rec.SSNHash, []byte(ssnLastFour)) == nil, nil
}

func (s *Service) transition(e Event) error {
	to, err := Next(s.state, e)
	if err != nil {
		return err
	}
	s.state = to
	return nil
}

func (s *Service) clear() {
	s.signup = nil
	s.account = nil
	s.card = nil
	s.lastErr = ""
}

func (s *Service) status() Status {
	events := make([]Event, 0, 4)
	for _, e := range Events(s.state) {
		if e != EventVerified && e != EventFailed {
			events = append(events, e)
		}
	}
	st := Status{
		State:     s.state,
		Events:    events,
		Account:   s.account,
		Card:      s.card,
		LastError: s.lastErr,
	}
	if s.signup != nil {
		st.Email = s.signup.Email
	}
	return st
}
