package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
)

// UserReader is the slice of the user store the resolver needs.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// IdentityResolver turns verified claims into a live identity.
// It never caches: each call reads the current record from the store.
type IdentityResolver struct {
	users UserReader
}

// NewIdentityResolver constructs a resolver.
func NewIdentityResolver(users UserReader) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve loads the user named by the claims. A denial reason is returned for
// expected failures; err is reserved for store failures.
func (r *IdentityResolver) Resolve(ctx context.Context, claims *Claims) (*domain.Identity, DenialReason, error) {
	if claims == nil || strings.TrimSpace(claims.UserID()) == "" {
		return nil, ReasonInvalidOrExpiredToken, nil
	}

	user, err := r.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ReasonUserNotFound, nil
		}
		return nil, "", err
	}
	if !user.IsActive {
		return nil, ReasonUserInactive, nil
	}
	return user.Identity(), "", nil
}
