package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/solux-card/solux_card/internal/session"
)

// RegisterMarketRoutes exposes the price feed.
func RegisterMarketRoutes(r fiber.Router, s *session.Session) {
	r.Get("/market", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"quotes": s.Feed.Quotes()})
	})
	r.Post("/market/refresh", func(c *fiber.Ctx) error {
		refreshed, err := s.RefreshMarket(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
		if !refreshed {
			return fiber.NewError(http.StatusNotImplemented, "market feed is static")
		}
		return c.JSON(fiber.Map{"quotes": s.Feed.Quotes()})
	})
}
