package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/login-service/internal/domain"
	"github.com/spec-kit/login-service/internal/repository"
)

const (
	principalKey = "auth_principal"
	bearerPrefix = "Bearer "
)

// Principal represents the authenticated caller.
type Principal struct {
	Subject string
	Role    domain.Role
}

// Authorities lists the authorities granted to the principal.
func (p *Principal) Authorities() []string {
	if p == nil || p.Role == "" {
		return []string{}
	}
	return []string{p.Role.Authority()}
}

// AuthMiddleware establishes a request principal from a session bearer token.
// It never rejects a request; routes that need a principal add RequireAuthenticated.
type AuthMiddleware struct {
	tokens *TokenService
	users  repository.UserRepository
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenService, users repository.UserRepository, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger}
}

// Handle runs once per request and always forwards to the next handler.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return c.Next()
	}
	token := strings.TrimPrefix(header, bearerPrefix)

	subject, err := m.tokens.ExtractSubject(token, DomainSession)
	if err != nil {
		m.logger.Debug("ignoring unreadable bearer token", zap.String("path", c.Path()), zap.Error(err))
		return c.Next()
	}

	// The lookup warms the user cache; its outcome does not decide authentication.
	if _, err := m.users.FindByUsername(c.UserContext(), subject); err != nil {
		m.logger.Debug("bearer subject lookup failed", zap.String("subject", subject), zap.Error(err))
	}

	if m.tokens.Validate(token, DomainSession) {
		c.Locals(principalKey, &Principal{Subject: subject})
	}
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
