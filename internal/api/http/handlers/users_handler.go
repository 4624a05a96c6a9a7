package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/internal/service"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// UsersHandler exposes user administration endpoints.
type UsersHandler struct {
	accounts *service.AccountService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accounts *service.AccountService) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter, err := parseUserFilter(c)
	if err != nil {
		return err
	}

	users, err := h.accounts.ListUsers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewUserResponses(users),
		"meta": fiber.Map{"limit": filter.Limit, "offset": filter.Offset, "count": len(users)},
	})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.accounts.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.CreateUser(c.UserContext(), service.CreateUserInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewUserResponse(user))
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateUser(c.UserContext(), c.Params("id"), service.UpdateUserInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Name:     req.Name,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// SetPassword handles PATCH /users/:id/password.
func (h *UsersHandler) SetPassword(c *fiber.Ctx) error {
	var req dto.PasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.accounts.SetPassword(c.UserContext(), c.Params("id"), req.Password); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"message": "password updated"})
}

// ChangeOwnPassword handles PATCH /users/me/password. The target is always the caller.
func (h *UsersHandler) ChangeOwnPassword(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req dto.PasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.accounts.ChangeOwnPassword(c.UserContext(), identity, req.Password); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"message": "password updated"})
}

// Deactivate handles PATCH /users/:id/deactivate.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	user, err := h.accounts.Deactivate(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// Remove handles DELETE /users/:id.
func (h *UsersHandler) Remove(c *fiber.Ctx) error {
	if err := h.accounts.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseUserFilter(c *fiber.Ctx) (repository.UserFilter, error) {
	filter := repository.UserFilter{
		Name:   c.Query("name"),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}

	if raw := c.Query("role"); raw != "" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			return filter, apperrors.NewValidationError("invalid role filter", map[string]any{"role": raw})
		}
		filter.Role = &role
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid is_active filter", map[string]any{"is_active": raw})
		}
		filter.IsActive = &active
	}
	return filter.Normalize(), nil
}
