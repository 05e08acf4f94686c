package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/solux-card/solux_card/internal/binding"
	"github.com/solux-card/solux_card/internal/ledger"
	"github.com/solux-card/solux_card/internal/market"
)

// Handler exposes the account ledger.
type Handler struct {
	ledger *ledger.Ledger
}

// NewHandler constructs an account handler.
func NewHandler(l *ledger.Ledger) *Handler {
	return &Handler{ledger: l}
}

type depositRequest struct {
	Asset  string          `json:"asset" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type settingRequest struct {
	Value json.RawMessage `json:"value"`
}

// Get returns the account snapshot with its dashboard summary.
func (h *Handler) Get(c *fiber.Ctx) error {
	snap := h.ledger.Snapshot()
	return c.JSON(fiber.Map{
		"account": snap,
		"summary": Summarize(snap, h.ledger.Feed()),
	})
}

// Deposit pledges collateral.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := binding.Bind(c, &req); err != nil {
		return err
	}
	asset, err := market.ParseAsset(req.Asset)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	holding, err := h.ledger.Deposit(c.UserContext(), asset, req.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"holding":     holding,
		"total_limit": h.ledger.View().TotalLimit,
	})
}

// UpdateSecurity changes one security setting named by the :key parameter.
func (h *Handler) UpdateSecurity(c *fiber.Ctx) error {
	var req settingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.Value) == 0 {
		return fiber.NewError(http.StatusBadRequest, "value is required")
	}

	key := ledger.SettingKey(c.Params("key"))
	value, err := decodeSetting(key, req.Value)
	if err == nil {
		err = h.ledger.UpdateSecuritySetting(c.UserContext(), key, value)
	}
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnknownSetting):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ledger.ErrSettingType):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(h.ledger.Snapshot().Security)
}

// decodeSetting turns the raw JSON value into the Go type the ledger
// expects for key.
func decodeSetting(key ledger.SettingKey, raw json.RawMessage) (any, error) {
	switch key {
	case ledger.SettingBiometric, ledger.SettingTwoFactor:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%w: %s expects a boolean", ledger.ErrSettingType, key)
		}
		return b, nil
	case ledger.SettingSpendingLimit:
		if string(raw) == "null" {
			return nil, nil
		}
		var d decimal.Decimal
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("%w: %s expects a number or null", ledger.ErrSettingType, key)
		}
		return d, nil
	case ledger.SettingIPWhitelist:
		var ips []string
		if err := json.Unmarshal(raw, &ips); err != nil || ips == nil {
			return nil, fmt.Errorf("%w: %s expects a list of strings", ledger.ErrSettingType, key)
		}
		return ips, nil
	default:
		// the ledger rejects the key
		return nil, nil
	}
}
