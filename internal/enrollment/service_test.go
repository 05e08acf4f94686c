package enrollment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/solux-card/solux_card/internal/binding"
	"github.com/solux-card/solux_card/internal/notification"
	"github.com/solux-card/solux_card/internal/provider"
)

type fakeGateway struct {
	enrollErr error
	cardErr   error
	release   chan struct{}
	entered   chan struct{}

	mu      sync.Mutex
	enrolls int
}

func (f *fakeGateway) EnrollAccount(_ context.Context, p provider.Profile) (provider.Result[provider.Account], error) {
	f.mu.Lock()
	f.enrolls++
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.enrollErr != nil {
		return provider.Result[provider.Account]{}, f.enrollErr
	}
	return provider.Live(provider.Account{Token: "acct-1", State: "ACTIVE", VerificationStatus: "APPROVED"}), nil
}

func (f *fakeGateway) IssueCard(_ context.Context, accountToken string) (provider.Result[provider.Card], error) {
	if f.cardErr != nil {
		return provider.Result[provider.Card]{}, f.cardErr
	}
	return provider.Live(provider.Card{Token: "card-for-" + accountToken, State: "OPEN", LastFour: "1111"}), nil
}

var (
	testSignup = Signup{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	testPII    = PII{
		DOB:         "1990-12-10",
		Address:     provider.Address{Address1: "1 Main St", City: "New York", State: "NY", PostalCode: "10001"},
		SSNLastFour: "1234",
	}
)

// toPII walks a fresh wizard to the pii step.
func toPII(t *testing.T, s *Service) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []Event{EventBegin, EventFaceCaptured, EventDocumentUploaded} {
		_, err := s.Fire(ctx, e)
		require.NoError(t, err)
	}
	st, err := s.SignUp(ctx, testSignup)
	require.NoError(t, err)
	require.Equal(t, StatePII, st.State)
	require.Equal(t, testSignup.Email, st.Email)
}

func TestSubmitIssuesCard(t *testing.T) {
	var issued provider.Card
	notes := &notification.Recorder{}
	repo := NewMemoryRepository()
	s := NewService(&fakeGateway{},
		WithRepository(repo),
		WithNotifier(notes),
		WithHashCost(bcrypt.MinCost),
		OnCardIssued(func(c provider.Card) { issued = c }),
	)
	toPII(t, s)

	st, err := s.Submit(context.Background(), testPII)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, st.State)
	require.NotNil(t, st.Card)
	assert.Equal(t, "card-for-acct-1", st.Card.Value.Token)
	assert.Equal(t, "card-for-acct-1", issued.Token)
	assert.Equal(t, []Event{EventReset}, st.Events)

	rec, err := repo.FindByEmail(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", rec.AccountToken)
	assert.NotContains(t, string(rec.SSNHash), "1234")
	assert.NoError(t, bcrypt.CompareHashAndPassword(rec.SSNHash, []byte("1234")))

	ok, err := s.VerifySSN(context.Background(), "ada@example.com", "1234")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.VerifySSN(context.Background(), "ada@example.com", "9999")
	require.NoError(t, err)
	assert.False(t, ok)

	msg, ok := notes.Last()
	require.True(t, ok)
	assert.Equal(t, notification.KindCardIssued, msg.Kind)
	assert.Equal(t, "Virtual card ending 1111 is ready", msg.Body)
}

func TestSubmitOutsidePIIIsIllegal(t *testing.T) {
	s := NewService(&fakeGateway{}, WithHashCost(bcrypt.MinCost))
	_, err := s.Submit(context.Background(), testPII)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StateWelcome, s.Status().State)
}

func TestSubmitInvalidPIIStaysOnStep(t *testing.T) {
	s := NewService(&fakeGateway{}, WithHashCost(bcrypt.MinCost))
	toPII(t, s)

	bad := testPII
	bad.SSNLastFour = "12"
	_, err := s.Submit(context.Background(), bad)
	var berr *binding.Error
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, StatePII, s.Status().State)
}

func TestDoubleSubmitRejectedWhileVerifying(t *testing.T) {
	gw := &fakeGateway{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := NewService(gw, WithHashCost(bcrypt.MinCost))
	toPII(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), testPII)
		done <- err
	}()

	<-gw.entered
	assert.Equal(t, StateVerifying, s.Status().State)
	_, err := s.Submit(context.Background(), testPII)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = s.Fire(context.Background(), EventReset)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	close(gw.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateSuccess, s.Status().State)
	assert.Equal(t, 1, gw.enrolls)
}

func TestProviderRejectionReturnsToWelcome(t *testing.T) {
	notes := &notification.Recorder{}
	gw := &fakeGateway{cardErr: &provider.APIError{Status: 400, Message: "account not eligible"}}
	s := NewService(gw, WithNotifier(notes), WithHashCost(bcrypt.MinCost))
	toPII(t, s)

	st, err := s.Submit(context.Background(), testPII)
	var apiErr *provider.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, StateWelcome, st.State)
	assert.Contains(t, st.LastError, "account not eligible")
	assert.Nil(t, st.Card)
	assert.Empty(t, st.Email)

	msg, ok := notes.Last()
	require.True(t, ok)
	assert.Equal(t, notification.KindProviderRejected, msg.Kind)
}

func TestAlreadyEnrolled(t *testing.T) {
	s := NewService(&fakeGateway{}, WithHashCost(bcrypt.MinCost))
	toPII(t, s)
	_, err := s.Submit(context.Background(), testPII)
	require.NoError(t, err)

	_, err = s.Fire(context.Background(), EventReset)
	require.NoError(t, err)
	toPII(t, s)
	_, err = s.Submit(context.Background(), testPII)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, StatePII, s.Status().State)
}

func TestFireRejectsDataEvents(t *testing.T) {
	s := NewService(&fakeGateway{})
	for _, e := range []Event{EventSignedUp, EventSubmit, EventVerified, EventFailed} {
		_, err := s.Fire(context.Background(), e)
		assert.ErrorIs(t, err, ErrIllegalTransition)
	}
	assert.Equal(t, StateWelcome, s.Status().State)
}

func TestSubmitThroughUnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := provider.NewGateway(
		provider.NewClient("key", provider.WithBaseURL(url), provider.WithTimeout(time.Second)),
		provider.WithFallbackDelay(time.Millisecond),
	)
	s := NewService(gw, WithHashCost(bcrypt.MinCost))
	toPII(t, s)

	st, err := s.Submit(context.Background(), testPII)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, st.State)
	require.NotNil(t, st.Account)
	assert.True(t, st.Account.IsSimulated())
	assert.Regexp(t, `^act_[0-9a-z]{15}$`, st.Account.Value.Token)
	assert.True(t, st.Card.IsSimulated())
	assert.Regexp(t, `^card_[0-9a-z]{15}$`, st.Card.Value.Token)
}
