package binding

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type swipeRequest struct {
	Merchant string `json:"merchant" validate:"max=64"`
	Category string `json:"category" default:"Simulated"`
}

type profileRequest struct {
	Email string `json:"email" validate:"required,email"`
	SSN   string `json:"ssn_last_four" validate:"required,len=4,numeric"`
}

func TestValidateAppliesDefaults(t *testing.T) {
	req := swipeRequest{Merchant: "Nike"}
	require.NoError(t, Validate(context.Background(), &req))
	assert.Equal(t, "Simulated", req.Category)
}

func TestValidateReportsFields(t *testing.T) {
	err := Validate(context.Background(), &profileRequest{Email: "nope", SSN: "12a"})
	require.Error(t, err)

	var berr *Error
	require.True(t, errors.As(err, &berr))
	require.Len(t, berr.Fields, 2)
	assert.Equal(t, "ERR_EMAIL", berr.Fields[0].Code)
	assert.Equal(t, "profileRequest.email", berr.Fields[0].Field)
	assert.Equal(t, "ERR_LEN", berr.Fields[1].Code)
}

func TestBindFromRequest(t *testing.T) {
	app := fiber.New()
	app.Post("/swipes", func(c *fiber.Ctx) error {
		var req swipeRequest
		if err := Bind(c, &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.SendString(req.Merchant + "/" + req.Category)
	})

	req := httptest.NewRequest(fiber.MethodPost, "/swipes", strings.NewReader(`{"merchant":"Uber"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Uber/Simulated", string(body))

	req = httptest.NewRequest(fiber.MethodPost, "/swipes", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "/Simulated", string(body))

	req = httptest.NewRequest(fiber.MethodPost, "/swipes", strings.NewReader(`{"merchant":`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
