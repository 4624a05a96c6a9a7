package http

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	App      *handlers.AppHandler
	Auth     *handlers.AuthHandler
	Users    *handlers.UsersHandler
	Guard    *auth.Guard
	Policies *auth.PolicyTable
}

type router struct {
	app      *fiber.App
	guard    *auth.Guard
	policies *auth.PolicyTable
}

// add registers handler behind the guard for its declared policy.
func (r router) add(method, path string, handler fiber.Handler) {
	key := auth.RouteKey{Method: method, Path: path}
	if _, ok := r.policies.Lookup(key); !ok {
		panic(fmt.Sprintf("route %s has no declared access policy", key))
	}
	r.app.Add(method, path, r.guard.Require(key), handler)
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	r := router{app: app, guard: cfg.Guard, policies: cfg.Policies}

	r.add(http.MethodGet, "/health/live", cfg.Health.Live)
	r.add(http.MethodGet, "/health/ready", cfg.Health.Ready)

	r.add(http.MethodGet, "/", cfg.App.Root)
	r.add(http.MethodGet, "/protected", cfg.App.Protected)
	r.add(http.MethodGet, "/admin", cfg.App.Admin)
	r.add(http.MethodGet, "/master", cfg.App.Master)

	r.add(http.MethodPost, "/auth/login", cfg.Auth.Login)
	r.add(http.MethodPost, "/auth/register", cfg.Auth.Register)
	r.add(http.MethodGet, "/auth/profile", cfg.Auth.Profile)
	r.add(http.MethodGet, "/auth/admin-only", cfg.Auth.AdminOnly)
	r.add(http.MethodGet, "/auth/master-only", cfg.Auth.MasterOnly)

	r.add(http.MethodGet, "/users", cfg.Users.List)
	r.add(http.MethodPost, "/users", cfg.Users.Create)
	// the literal segment must be registered before :id so it wins
	r.add(http.MethodPatch, "/users/me/password", cfg.Users.ChangeOwnPassword)
	r.add(http.MethodGet, "/users/:id", cfg.Users.Get)
	r.add(http.MethodPatch, "/users/:id", cfg.Users.Update)
	r.add(http.MethodPatch, "/users/:id/password", cfg.Users.SetPassword)
	r.add(http.MethodPatch, "/users/:id/deactivate", cfg.Users.Deactivate)
	r.add(http.MethodDelete, "/users/:id", cfg.Users.Remove)
}
