package auth

import (
	"context"

	"github.com/spec-kit/identity-service/internal/domain"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// DenialReason names the stage at which a request was refused.
type DenialReason string

const (
	ReasonNoToken               DenialReason = "NO_TOKEN"
	ReasonInvalidOrExpiredToken DenialReason = "INVALID_OR_EXPIRED_TOKEN"
	ReasonUserNotFound          DenialReason = "USER_NOT_FOUND"
	ReasonUserInactive          DenialReason = "USER_INACTIVE"
	ReasonInsufficientRole      DenialReason = "INSUFFICIENT_ROLE"
)

// Err converts the reason into the wire error: 401 for identity failures, 403 for role failures.
func (r DenialReason) Err() error {
	switch r {
	case ReasonNoToken:
		return apperrors.NewUnauthorized(apperrors.CodeNoToken, "unauthorized")
	case ReasonInvalidOrExpiredToken:
		return apperrors.NewUnauthorized(apperrors.CodeInvalidOrExpiredToken, "invalid or expired token")
	case ReasonUserNotFound:
		return apperrors.NewUnauthorized(apperrors.CodeUserNotFound, "user not found")
	case ReasonUserInactive:
		return apperrors.NewUnauthorized(apperrors.CodeUserInactive, "user account is inactive")
	case ReasonInsufficientRole:
		return apperrors.NewForbidden(apperrors.CodeInsufficientRole, "insufficient role")
	default:
		return apperrors.NewUnauthorized(apperrors.CodeUnauthorized, "unauthorized")
	}
}

// Verdict is the outcome of authorizing one request.
type Verdict struct {
	Allowed  bool
	Identity *domain.Identity
	Reason   DenialReason
}

func allow(identity *domain.Identity) Verdict {
	return Verdict{Allowed: true, Identity: identity}
}

func deny(reason DenialReason) Verdict {
	return Verdict{Reason: reason}
}

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*Claims, error)
}

// Pipeline runs extraction, verification, identity resolution and the role check for a route.
// It holds no per-request state.
type Pipeline struct {
	policies *PolicyTable
	tokens   TokenParser
	resolver *IdentityResolver
}

// NewPipeline wires the pipeline from its collaborators.
func NewPipeline(policies *PolicyTable, tokens TokenParser, resolver *IdentityResolver) *Pipeline {
	return &Pipeline{policies: policies, tokens: tokens, resolver: resolver}
}

// Authorize decides whether the request to key may proceed.
// Routes missing from the table are treated as requiring authentication.
func (p *Pipeline) Authorize(ctx context.Context, key RouteKey, authorizationHeader string) (Verdict, error) {
	policy, _ := p.policies.Lookup(key)
	if policy.Public {
		return allow(nil), nil
	}

	raw, ok := ExtractBearer(authorizationHeader)
	if !ok {
		return deny(ReasonNoToken), nil
	}

	claims, err := p.tokens.Parse(raw)
	if err != nil {
		return deny(ReasonInvalidOrExpiredToken), nil
	}

	identity, reason, err := p.resolver.Resolve(ctx, claims)
	if err != nil {
		return Verdict{}, err
	}
	if reason != "" {
		return deny(reason), nil
	}

	if !policy.Permits(identity.Role) {
		return deny(ReasonInsufficientRole), nil
	}
	return allow(identity), nil
}
