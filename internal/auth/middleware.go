package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/domain"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

const identityKey = "auth_identity"

// DenialRecorder counts refused requests by reason.
type DenialRecorder interface {
	RecordDenial(route, reason string)
}

// Guard adapts the Pipeline to fiber handlers.
type Guard struct {
	pipeline *Pipeline
	logger   *zap.Logger
	denials  DenialRecorder
}

// NewGuard constructs middleware. logger and denials may be nil.
func NewGuard(pipeline *Pipeline, logger *zap.Logger, denials DenialRecorder) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{pipeline: pipeline, logger: logger, denials: denials}
}

// Require enforces the declared policy of key before the route handler runs.
func (g *Guard) Require(key RouteKey) fiber.Handler {
	return func(c *fiber.Ctx) error {
		verdict, err := g.pipeline.Authorize(c.UserContext(), key, c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return apperrors.NewInternalError(err)
		}

		if !verdict.Allowed {
			g.logger.Debug("request denied",
				zap.String("route", key.String()),
				zap.String("reason", string(verdict.Reason)))
			if g.denials != nil {
				g.denials.RecordDenial(key.String(), string(verdict.Reason))
			}
			return verdict.Reason.Err()
		}

		if verdict.Identity != nil {
			c.Locals(identityKey, verdict.Identity)
		}
		return c.Next()
	}
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
