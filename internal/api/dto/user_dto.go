package dto

import (
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

// RegisterRequest payload for self-service signup. Phone is validated before password.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,br_phone"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
}

// CreateUserRequest payload for administrative creation.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,br_phone"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,role"`
}

// UpdateUserRequest payload for partial updates. An empty phone clears it.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitnil,email"`
	Phone    *string `json:"phone" validate:"omitnil,omitempty,br_phone"`
	Name     *string `json:"name"`
	Role     *string `json:"role" validate:"omitnil,role"`
	IsActive *bool   `json:"is_active"`
}

// PasswordRequest carries a new password. Any id in the body is ignored.
type PasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// UserResponse is the public view of an account. It never carries the password hash.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IdentityResponse is the caller as resolved by the auth pipeline.
type IdentityResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Phone string      `json:"phone,omitempty"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// NewIdentityResponse maps a resolved identity.
func NewIdentityResponse(identity *domain.Identity) IdentityResponse {
	return IdentityResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Phone: identity.Phone,
		Name:  identity.Name,
		Role:  identity.Role,
	}
}
