package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/solux-card/solux_card/internal/account"
	"github.com/solux-card/solux_card/internal/card"
	"github.com/solux-card/solux_card/internal/config"
	"github.com/solux-card/solux_card/internal/enrollment"
	"github.com/solux-card/solux_card/internal/middleware"
	"github.com/solux-card/solux_card/internal/session"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Session  *session.Session
	Registry *prometheus.Registry
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Session == nil {
		return fmt.Errorf("routes: session is required")
	}
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLog(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, middleware.IdempotencyConfig{TTL: d.Cfg.IdempotencyTTL}, d.Logger))
	}

	RegisterHealthRoutes(app, d)
	if d.Registry != nil {
		RegisterMetricsRoute(app, d.Registry)
	}

	s := d.Session
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, account.NewHandler(s.Ledger))
	RegisterMarketRoutes(api, s)
	RegisterCardRoutes(api, card.NewHandler(s.Cards, s.Ledger))
	RegisterEnrollmentRoutes(api, enrollment.NewHandler(s.Enrollment),
		middleware.RateLimit(d.Cache, "enrollment_submit", d.Cfg.SubmitsPerMin, d.Logger))

	return nil
}
