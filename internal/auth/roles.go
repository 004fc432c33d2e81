package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/login-service/internal/domain"
	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

// UserLoader resolves the stored record behind a principal.
type UserLoader interface {
	LoadUser(ctx context.Context, username string) (*domain.User, error)
}

// RequireAuthenticated ensures a principal was established for the request.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireRole loads the caller's stored role onto the principal and ensures it
// is one of allowed. With no roles given any authenticated caller passes.
func RequireRole(users UserLoader, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		user, err := users.LoadUser(c.UserContext(), principal.Subject)
		if err != nil {
			return err
		}
		principal.Role = user.Role

		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
