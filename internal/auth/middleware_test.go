package auth

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/pkg/util"
)

type denialLog struct {
	mu      sync.Mutex
	entries []string
}

func (d *denialLog) RecordDenial(route, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, route+" "+reason)
}

func newGuardedApp(t *testing.T) (*fiber.App, *pipelineFixture, *denialLog) {
	t.Helper()
	f := newPipelineFixture(t)
	denials := &denialLog{}
	guard := NewGuard(f.pipeline, nil, denials)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := util.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": domainErr.Code}})
		},
	})
	app.Get("/", guard.Require(routeRoot), func(c *fiber.Ctx) error {
		_, ok := IdentityFromContext(c)
		return c.JSON(fiber.Map{"identity": ok})
	})
	app.Get("/admin", guard.Require(routeAdmin), func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"id": identity.ID})
	})
	return app, f, denials
}

func TestGuard_PublicRouteHasNoIdentity(t *testing.T) {
	app, _, _ := newGuardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer junk")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuard_AllowsAndStoresIdentity(t *testing.T) {
	app, f, denials := newGuardedApp(t)
	header := f.addUser(t, "boss", domain.RoleMaster, true)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, header)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, denials.entries)
}

func TestGuard_DenialStatuses(t *testing.T) {
	app, f, denials := newGuardedApp(t)
	userHeader := f.addUser(t, "plain", domain.RoleUser, true)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", userHeader, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	assert.Equal(t, []string{
		"GET /admin NO_TOKEN",
		"GET /admin INVALID_OR_EXPIRED_TOKEN",
		"GET /admin INSUFFICIENT_ROLE",
	}, denials.entries)
}

func TestIdentityFromContext_Missing(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		assert.Nil(t, identity)
		assert.False(t, ok)
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
