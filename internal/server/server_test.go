package server

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solux-card/solux_card/internal/config"
	"github.com/solux-card/solux_card/internal/logging"
)

func TestNewServesPingAndErrorsAsJSON(t *testing.T) {
	srv, err := New(context.Background(), config.Config{AppName: "Solux", AppEnv: "test"}, nil, nil, logging.Discard())
	require.NoError(t, err)

	resp, err := srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/nope", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(raw), `"error"`)

	resp, err = srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestNewRejectsMissingBackendsOutsideDev(t *testing.T) {
	_, err := New(context.Background(), config.Config{AppEnv: "production"}, nil, nil, logging.Discard())
	assert.Error(t, err)
}
