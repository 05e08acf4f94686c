package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solux-card/solux_card/internal/config"
	"github.com/solux-card/solux_card/internal/logging"
	"github.com/solux-card/solux_card/internal/middleware"
	"github.com/solux-card/solux_card/internal/session"
)

func setupApp(t *testing.T, cache *redis.Client) *fiber.App {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	providerURL := srv.URL
	srv.Close()

	cfg := config.Config{
		AppEnv:         "test",
		IdempotencyTTL: time.Minute,
		Provider: config.ProviderConfig{
			BaseURL:       providerURL,
			Timeout:       time.Second,
			FallbackDelay: time.Millisecond,
		},
	}
	reg := prometheus.NewRegistry()
	s, err := session.New(context.Background(), cfg, session.Deps{Registry: reg})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logging.Discard())})
	require.NoError(t, Setup(app, Deps{
		Cfg:      cfg,
		Cache:    cache,
		Logger:   logging.Discard(),
		Session:  s,
		Registry: reg,
	}))
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (int, []byte, http.Header) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw, resp.Header
}

func TestSetupRequiresSession(t *testing.T) {
	err := Setup(fiber.New(), Deps{Cfg: config.Config{AppEnv: "test"}, Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestHealthzReportsDisabledBackends(t *testing.T) {
	app := setupApp(t, nil)

	status, raw, headers := send(t, app, fiber.MethodGet, "/healthz", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"postgres":"disabled"`)
	assert.NotEmpty(t, headers.Get("X-Request-ID"))
}

func TestSwipeDeclinedWhenFrozen(t *testing.T) {
	app := setupApp(t, nil)

	status, _, _ := send(t, app, fiber.MethodPost, "/api/v1/card/freeze", "")
	require.Equal(t, fiber.StatusOK, status)

	status, raw, _ := send(t, app, fiber.MethodPost, "/api/v1/card/swipes", `{"amount":"12.50","merchant":"Shell"}`)
	require.Equal(t, fiber.StatusPaymentRequired, status)
	var dec struct {
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(raw, &dec))
	assert.False(t, dec.Approved)
	assert.Equal(t, "card frozen", dec.Reason)

	status, raw, _ = send(t, app, fiber.MethodGet, "/metrics", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), "solux_authorization_decisions_total")
}

func TestSwipeApprovedAppearsOnAccount(t *testing.T) {
	app := setupApp(t, nil)

	status, _, _ := send(t, app, fiber.MethodPost, "/api/v1/card/swipes", `{"amount":"40","merchant":"Nike"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, raw, _ := send(t, app, fiber.MethodGet, "/api/v1/account", "")
	require.Equal(t, fiber.StatusOK, status)
	var out struct {
		Account struct {
			Transactions []struct {
				Merchant string `json:"merchant"`
			} `json:"transactions"`
		} `json:"account"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Account.Transactions, 6)
	assert.Equal(t, "Nike", out.Account.Transactions[0].Merchant)
}

func TestMarketRoutes(t *testing.T) {
	app := setupApp(t, nil)

	status, raw, _ := send(t, app, fiber.MethodGet, "/api/v1/market", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"ETH"`)

	status, _, _ = send(t, app, fiber.MethodPost, "/api/v1/market/refresh", "")
	assert.Equal(t, fiber.StatusNotImplemented, status)
}

func TestEnrollmentRejectsIllegalEvent(t *testing.T) {
	app := setupApp(t, nil)

	status, raw, _ := send(t, app, fiber.MethodGet, "/api/v1/enrollment", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"state":"welcome"`)

	status, _, _ = send(t, app, fiber.MethodPost, "/api/v1/enrollment/events", `{"event":"face_captured"}`)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestDepositsReplayWithIdempotencyKey(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	app := setupApp(t, cache)

	body := `{"asset":"SOL","amount":"10"}`
	status, first, _ := send(t, app, fiber.MethodPost, "/api/v1/collateral/deposits", body, "Idempotency-Key", "dep-1")
	require.Equal(t, fiber.StatusCreated, status)
	status, second, headers := send(t, app, fiber.MethodPost, "/api/v1/collateral/deposits", body, "Idempotency-Key", "dep-1")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "true", headers.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(first), string(second))

	_, raw, _ := send(t, app, fiber.MethodGet, "/api/v1/account", "")
	var out struct {
		Account struct {
			Collateral []struct {
				Asset string `json:"asset"`
			} `json:"collateral"`
		} `json:"account"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	var sol int
	for _, h := range out.Account.Collateral {
		if h.Asset == "SOL" {
			sol++
		}
	}
	assert.Equal(t, 1, sol)
}
