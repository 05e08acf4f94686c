package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/solux-card/solux_card/internal/card"
)

// RegisterCardRoutes wires card endpoints.
func RegisterCardRoutes(r fiber.Router, h *card.Handler) {
	r.Get("/card", h.Get)
	r.Post("/card/swipes", h.Swipe)
	r.Post("/card/freeze", h.Freeze)
}
