// Package session assembles the card core for one running process.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/solux-card/solux_card/internal/authorization"
	"github.com/solux-card/solux_card/internal/card"
	"github.com/solux-card/solux_card/internal/config"
	"github.com/solux-card/solux_card/internal/enrollment"
	"github.com/solux-card/solux_card/internal/ledger"
	"github.com/solux-card/solux_card/internal/logging"
	"github.com/solux-card/solux_card/internal/market"
	"github.com/solux-card/solux_card/internal/metrics"
	"github.com/solux-card/solux_card/internal/notification"
	"github.com/solux-card/solux_card/internal/provider"
	"github.com/solux-card/solux_card/internal/seed"
)

// Feed is a price feed that can also list its quotes.
type Feed interface {
	market.Feed
	market.Lister
}

// Session holds the single ledger and the services acting on it.
type Session struct {
	Feed       Feed
	Ledger     *ledger.Ledger
	Engine     *authorization.Engine
	Gateway    *provider.Gateway
	Cards      *card.Service
	Enrollment *enrollment.Service
	Metrics    *metrics.Recorder
	Notifier   notification.Notifier
}

// Deps are the optional collaborators of a session.
type Deps struct {
	DB       *pgxpool.Pool
	Logger   *slog.Logger
	Registry prometheus.Registerer
	Notifier notification.Notifier
	Now      func() time.Time
}

// New loads the seed and wires the core. With a database, quotes come from
// market_prices and enrollments are stored in Postgres.
func New(ctx context.Context, cfg config.Config, d Deps) (*Session, error) {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(logger)
	}

	doc, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	static, err := doc.Feed()
	if err != nil {
		return nil, err
	}
	ledgerSeed, err := doc.Ledger(now())
	if err != nil {
		return nil, err
	}

	var feed Feed = static
	enrollRepo := enrollment.NewMemoryRepository()
	if d.DB != nil {
		pg := market.NewPostgresFeed(d.DB, static.Quotes()...)
		if err := pg.Refresh(ctx); err != nil {
			logger.Warn("market prices unavailable, serving seeded quotes", slog.Any("error", err))
		}
		feed = pg
		enrollRepo = enrollment.NewPostgresRepository(d.DB)
	}

	rec := metrics.New(d.Registry)

	l := ledger.New(feed,
		ledger.WithSeed(ledgerSeed),
		ledger.WithClock(now),
		ledger.WithLogger(logger.With(slog.String("component", "ledger"))),
	)
	engine := authorization.NewEngine(l,
		authorization.WithMetrics(rec),
		authorization.WithLogger(logger.With(slog.String("component", "authorization"))),
	)

	client := provider.NewClient(cfg.Provider.APIKey,
		provider.WithBaseURL(cfg.Provider.BaseURL),
		provider.WithTimeout(cfg.Provider.Timeout),
	)
	gateway := provider.NewGateway(client,
		provider.WithFallbackDelay(cfg.Provider.FallbackDelay),
		provider.WithGatewayLogger(logger.With(slog.String("component", "provider"))),
		provider.WithGatewayMetrics(rec),
	)

	cards := card.NewService(engine,
		card.WithIssuer(gateway),
		card.WithNotifier(notifier),
		card.WithLogger(logger.With(slog.String("component", "card"))),
	)
	enroll := enrollment.NewService(gateway,
		enrollment.WithRepository(enrollRepo),
		enrollment.WithNotifier(notifier),
		enrollment.WithMetrics(rec),
		enrollment.WithLogger(logger.With(slog.String("component", "enrollment"))),
		enrollment.OnCardIssued(cards.Attach),
	)

	return &Session{
		Feed:       feed,
		Ledger:     l,
		Engine:     engine,
		Gateway:    gateway,
		Cards:      cards,
		Enrollment: enroll,
		Metrics:    rec,
		Notifier:   notifier,
	}, nil
}

// RefreshMarket reloads quotes when the feed has an external source.
func (s *Session) RefreshMarket(ctx context.Context) (bool, error) {
	r, ok := s.Feed.(market.Refresher)
	if !ok {
		return false, nil
	}
	if err := r.Refresh(ctx); err != nil {
		return true, fmt.Errorf("refresh market: %w", err)
	}
	return true, nil
}
