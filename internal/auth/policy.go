package auth

import (
	"fmt"

	"github.com/spec-kit/identity-service/internal/domain"
)

// RouteKey identifies a route by method and registered path pattern, e.g. GET /users/:id.
type RouteKey struct {
	Method string
	Path   string
}

func (k RouteKey) String() string {
	return fmt.Sprintf("%s %s", k.Method, k.Path)
}

// RoutePolicy declares who may reach a route.
// A non-public policy with no roles admits any authenticated, active user.
type RoutePolicy struct {
	Public bool
	Roles  []domain.Role

	allowed map[domain.Role]struct{}
}

// Public admits everyone, with or without a token.
func Public() RoutePolicy {
	return RoutePolicy{Public: true}
}

// Authenticated admits any resolved identity.
func Authenticated() RoutePolicy {
	return RoutePolicy{}
}

// RequireRoles admits resolved identities whose role is listed.
func RequireRoles(roles ...domain.Role) RoutePolicy {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return RoutePolicy{Roles: roles, allowed: allowed}
}

// Permits reports whether role satisfies the policy's role requirement.
func (p RoutePolicy) Permits(role domain.Role) bool {
	if len(p.Roles) == 0 {
		return true
	}
	if p.allowed != nil {
		_, ok := p.allowed[role]
		return ok
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PolicyTable is the per-route declaration table. It is built once and never mutated,
// so concurrent lookups need no locking.
type PolicyTable struct {
	policies map[RouteKey]RoutePolicy
}

// NewPolicyTable copies the declarations into an immutable table.
func NewPolicyTable(declared map[RouteKey]RoutePolicy) *PolicyTable {
	policies := make(map[RouteKey]RoutePolicy, len(declared))
	for key, policy := range declared {
		if !policy.Public && len(policy.Roles) > 0 && policy.allowed == nil {
			policy = RequireRoles(policy.Roles...)
		}
		policies[key] = policy
	}
	return &PolicyTable{policies: policies}
}

// Lookup returns the declared policy for key.
func (t *PolicyTable) Lookup(key RouteKey) (RoutePolicy, bool) {
	if t == nil {
		return RoutePolicy{}, false
	}
	policy, ok := t.policies[key]
	return policy, ok
}

// Keys lists every declared route.
func (t *PolicyTable) Keys() []RouteKey {
	keys := make([]RouteKey, 0, len(t.policies))
	for key := range t.policies {
		keys = append(keys, key)
	}
	return keys
}
