package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
)

// DefaultSeedPassword is shared by every seeded account.
const DefaultSeedPassword = "123456"

type seedAccount struct {
	email string
	name  string
	role  domain.Role
}

var defaultAccounts = []seedAccount{
	{email: "master@example.com", name: "Master User", role: domain.RoleMaster},
	{email: "admin@example.com", name: "Admin User", role: domain.RoleAdmin},
	{email: "user@example.com", name: "Regular User", role: domain.RoleUser},
}

// SeedUsers creates one account per role when missing. Existing accounts are left untouched.
func SeedUsers(ctx context.Context, users repository.UserRepository, hasher *auth.PasswordHasher, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	hash, err := hasher.Hash(DefaultSeedPassword)
	if err != nil {
		return err
	}

	for _, account := range defaultAccounts {
		_, err := users.GetByEmail(ctx, account.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		user := &domain.User{
			ID:           uuid.NewString(),
			Email:        account.email,
			PasswordHash: hash,
			Name:         account.name,
			Role:         account.role,
			IsActive:     true,
		}
		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrEmailTaken) {
				continue
			}
			return err
		}
		logger.Info("seeded user", zap.String("email", account.email), zap.String("role", string(account.role)))
	}
	return nil
}
