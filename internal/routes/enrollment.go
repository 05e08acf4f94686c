package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/solux-card/solux_card/internal/enrollment"
)

// RegisterEnrollmentRoutes wires the enrollment wizard. submitLimit guards
// the route that calls the card issuer.
func RegisterEnrollmentRoutes(r fiber.Router, h *enrollment.Handler, submitLimit fiber.Handler) {
	g := r.Group("/enrollment")
	g.Get("", h.Get)
	g.Post("/events", h.Event)
	g.Post("/submit", submitLimit, h.Submit)
	g.Post("/verify", h.Verify)
}
