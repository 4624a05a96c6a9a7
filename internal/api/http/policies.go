package http

import (
	"net/http"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
)

var (
	elevatedRoles = []domain.Role{domain.RoleAdmin, domain.RoleMaster}
	masterRoles   = []domain.Role{domain.RoleMaster}
)

// DeclaredPolicies is the access table for every route the service exposes.
// Registering a route that is missing here panics at startup.
func DeclaredPolicies() map[auth.RouteKey]auth.RoutePolicy {
	return map[auth.RouteKey]auth.RoutePolicy{
		{Method: http.MethodGet, Path: "/health/live"}:  auth.Public(),
		{Method: http.MethodGet, Path: "/health/ready"}: auth.Public(),

		{Method: http.MethodGet, Path: "/"}:          auth.Public(),
		{Method: http.MethodGet, Path: "/protected"}: auth.Authenticated(),
		{Method: http.MethodGet, Path: "/admin"}:     auth.RequireRoles(elevatedRoles...),
		{Method: http.MethodGet, Path: "/master"}:    auth.RequireRoles(masterRoles...),

		{Method: http.MethodPost, Path: "/auth/login"}:      auth.Public(),
		{Method: http.MethodPost, Path: "/auth/register"}:   auth.Public(),
		{Method: http.MethodGet, Path: "/auth/profile"}:     auth.Authenticated(),
		{Method: http.MethodGet, Path: "/auth/admin-only"}:  auth.RequireRoles(elevatedRoles...),
		{Method: http.MethodGet, Path: "/auth/master-only"}: auth.RequireRoles(masterRoles...),

		{Method: http.MethodGet, Path: "/users"}:                  auth.RequireRoles(elevatedRoles...),
		{Method: http.MethodGet, Path: "/users/:id"}:              auth.RequireRoles(elevatedRoles...),
		{Method: http.MethodPost, Path: "/users"}:                 auth.RequireRoles(elevatedRoles...),
		{Method: http.MethodPatch, Path: "/users/:id"}:            auth.RequireRoles(elevatedRoles...),
		{Method: http.MethodPatch, Path: "/users/me/password"}:    auth.Authenticated(),
		{Method: http.MethodPatch, Path: "/users/:id/password"}:   auth.RequireRoles(elevatedRoles...),
		{Method: http.MethodPatch, Path: "/users/:id/deactivate"}: auth.RequireRoles(elevatedRoles...),
		{Method: http.MethodDelete, Path: "/users/:id"}:           auth.RequireRoles(masterRoles...),
	}
}
