package enrollment

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/solux-card/solux_card/internal/binding"
	"github.com/solux-card/solux_card/internal/provider"
)

// Handler exposes the enrollment wizard.
type Handler struct {
	service *Service
}

// NewHandler constructs an enrollment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type eventRequest struct {
	Event Event `json:"event" validate:"required"`
}

type verifyRequest struct {
	Email       string `json:"email" validate:"required,email"`
	SSNLastFour string `json:"ssn_last_four" validate:"required,len=4,numeric"`
}

// Get returns the wizard status.
func (h *Handler) Get(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// Event applies a wizard event. The signed_up event carries the signup
// fields in the same body.
func (h *Handler) Event(c *fiber.Ctx) error {
	var req eventRequest
	if err := binding.Bind(c, &req); err != nil {
		return err
	}

	var (
		st  Status
		err error
	)
	if req.Event == EventSignedUp {
		var in Signup
		if err := binding.Bind(c, &in); err != nil {
			return err
		}
		st, err = h.service.SignUp(c.UserContext(), in)
	} else {
		st, err = h.service.Fire(c.UserContext(), req.Event)
	}
	if err != nil {
		return mapError(err)
	}
	return c.JSON(st)
}

// Submit sends the completed profile to the card issuer.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var in PII
	if err := binding.Bind(c, &in); err != nil {
		return err
	}
	st, err := h.service.Submit(c.UserContext(), in)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(st)
}

// Verify checks SSN digits against a completed enrollment.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := binding.Bind(c, &req); err != nil {
		return err
	}
	ok, err := h.service.VerifySSN(c.UserContext(), req.Email, req.SSNLastFour)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"match": ok})
}

func mapError(err error) error {
	var (
		apiErr *provider.APIError
		berr   *binding.Error
	)
	switch {
	case errors.As(err, &berr):
		return err
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrAlreadyEnrolled):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		return fiber.NewError(http.StatusBadGateway, apiErr.Message)
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
