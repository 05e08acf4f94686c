package card

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/solux-card/solux_card/internal/binding"
	"github.com/solux-card/solux_card/internal/ledger"
	"github.com/solux-card/solux_card/internal/provider"
)

// Handler exposes card endpoints.
type Handler struct {
	service *Service
	ledger  *ledger.Ledger
}

// NewHandler constructs a card handler.
func NewHandler(service *Service, l *ledger.Ledger) *Handler {
	return &Handler{service: service, ledger: l}
}

type swipeRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Merchant string           `json:"merchant" validate:"max=64"`
	Category string           `json:"category" default:"Simulated" validate:"max=32"`
}

// Get returns the issued card.
func (h *Handler) Get(c *fiber.Ctx) error {
	card, err := h.service.Card()
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.JSON(card)
}

// Swipe attempts a charge. Missing merchant or amount are generated.
func (h *Handler) Swipe(c *fiber.Ctx) error {
	var req swipeRequest
	if err := binding.Bind(c, &req); err != nil {
		return err
	}

	sw := h.service.RandomSwipe()
	if req.Merchant != "" {
		sw.Merchant = req.Merchant
	}
	if req.Amount != nil {
		sw.Amount = *req.Amount
	}
	sw.Category = req.Category

	dec, err := h.service.Attempt(c.UserContext(), sw)
	if err != nil {
		var apiErr *provider.APIError
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.As(err, &apiErr):
			return fiber.NewError(http.StatusBadGateway, apiErr.Message)
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	status := http.StatusCreated
	if !dec.Approved {
		status = http.StatusPaymentRequired
	}
	return c.Status(status).JSON(dec)
}

// Freeze toggles the emergency freeze.
func (h *Handler) Freeze(c *fiber.Ctx) error {
	frozen := h.ledger.ToggleFreeze(c.UserContext())
	return c.JSON(fiber.Map{"is_frozen": frozen})
}
