package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/solux-card/solux_card/internal/account"
)

// RegisterAccountRoutes wires the ledger endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Get("/account", h.Get)
	r.Post("/collateral/deposits", h.Deposit)
	r.Put("/security/:key", h.UpdateSecurity)
}
