package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/service"
)

// AuthHandler exposes login, registration and profile endpoints.
type AuthHandler struct {
	accounts *service.AccountService
	now      func() time.Time
}

// NewAuthHandler constructs handler.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts, now: time.Now}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.accounts.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, authResponse(res))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, authResponse(res))
}

// Profile handles GET /auth/profile.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.accounts.GetProfile(c.UserContext(), identity.ID)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// AdminOnly handles GET /auth/admin-only.
func (h *AuthHandler) AdminOnly(c *fiber.Ctx) error {
	return data(c, http.StatusOK, fiber.Map{
		"message":   "This endpoint is only accessible by ADMIN and MASTER users",
		"timestamp": h.now().UTC(),
	})
}

// MasterOnly handles GET /auth/master-only.
func (h *AuthHandler) MasterOnly(c *fiber.Ctx) error {
	return data(c, http.StatusOK, fiber.Map{
		"message":   "This endpoint is only accessible by MASTER users",
		"timestamp": h.now().UTC(),
	})
}

func authResponse(res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken: res.Token,
		ExpiresAt:   res.ExpiresAt,
		User:        dto.NewUserResponse(res.User),
	}
}
