package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
)

func TestSeedUsers(t *testing.T) {
	ctx := context.Background()
	users := repository.NewMemoryUserRepository()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	require.NoError(t, SeedUsers(ctx, users, hasher, nil))

	want := map[string]domain.Role{
		"master@example.com": domain.RoleMaster,
		"admin@example.com":  domain.RoleAdmin,
		"user@example.com":   domain.RoleUser,
	}
	for email, role := range want {
		user, err := users.GetByEmail(ctx, email)
		require.NoError(t, err, email)
		assert.Equal(t, role, user.Role)
		assert.True(t, user.IsActive)
		assert.True(t, hasher.Verify(DefaultSeedPassword, user.PasswordHash))
	}

	// a second run keeps existing records
	master, err := users.GetByEmail(ctx, "master@example.com")
	require.NoError(t, err)
	require.NoError(t, SeedUsers(ctx, users, hasher, nil))
	again, err := users.GetByEmail(ctx, "master@example.com")
	require.NoError(t, err)
	assert.Equal(t, master.ID, again.ID)

	all, err := users.List(ctx, repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
