package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
)

// AppHandler serves the demo routes that show each access level.
type AppHandler struct{}

// NewAppHandler constructs handler.
func NewAppHandler() *AppHandler {
	return &AppHandler{}
}

// Root handles GET /.
func (h *AppHandler) Root(c *fiber.Ctx) error {
	return data(c, http.StatusOK, fiber.Map{"message": "Hello World!"})
}

// Protected handles GET /protected.
func (h *AppHandler) Protected(c *fiber.Ctx) error {
	return h.greet(c, "This is a protected route")
}

// Admin handles GET /admin.
func (h *AppHandler) Admin(c *fiber.Ctx) error {
	return h.greet(c, "This route requires ADMIN or MASTER role")
}

// Master handles GET /master.
func (h *AppHandler) Master(c *fiber.Ctx) error {
	return h.greet(c, "This route requires MASTER role only")
}

func (h *AppHandler) greet(c *fiber.Ctx, message string) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{
		"message": message,
		"user":    dto.NewIdentityResponse(identity),
	})
}
