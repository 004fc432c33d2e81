package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

// Authentication describes a login completed by an external provider.
type Authentication struct {
	// Principal is whatever identity the provider integration produced.
	Principal any
	// Name is the provider's generic name for the authentication, used last.
	Name string
}

// AttributePrincipal exposes provider attributes such as "email".
type AttributePrincipal interface {
	Attribute(name string) (any, bool)
}

// UsernamePrincipal exposes a local username.
type UsernamePrincipal interface {
	Username() string
}

type subjectExtractor func(Authentication) (string, bool)

// subjectExtractors run in order; the first that yields a subject wins.
var subjectExtractors = []subjectExtractor{
	emailAttribute,
	principalUsername,
	plainString,
	authenticationName,
}

func emailAttribute(a Authentication) (string, bool) {
	p, ok := a.Principal.(AttributePrincipal)
	if !ok {
		return "", false
	}
	raw, ok := p.Attribute("email")
	if !ok {
		return "", false
	}
	email, ok := raw.(string)
	return email, ok && email != ""
}

func principalUsername(a Authentication) (string, bool) {
	p, ok := a.Principal.(UsernamePrincipal)
	if !ok {
		return "", false
	}
	name := p.Username()
	return name, name != ""
}

func plainString(a Authentication) (string, bool) {
	s, ok := a.Principal.(string)
	return s, ok && s != ""
}

func authenticationName(a Authentication) (string, bool) {
	return a.Name, true
}

// SubjectOf derives the token subject for an external authentication.
func SubjectOf(a Authentication) string {
	for _, extract := range subjectExtractors {
		if subject, ok := extract(a); ok {
			return subject
		}
	}
	return ""
}

// OAuthBridge turns a successful external login into a session token.
type OAuthBridge struct {
	tokens *TokenService
}

// NewOAuthBridge constructs the bridge.
func NewOAuthBridge(tokens *TokenService) *OAuthBridge {
	return &OAuthBridge{tokens: tokens}
}

// OnExternalLoginSuccess issues a session token for the authenticated subject
// and writes {"token": ...} as the JSON response body. An authentication that
// yields no subject is rejected without issuing a token.
func (b *OAuthBridge) OnExternalLoginSuccess(c *fiber.Ctx, authn Authentication) error {
	subject := SubjectOf(authn)
	if subject == "" {
		return apperrors.NewUnauthorized("external login carried no usable identity")
	}
	token, err := b.tokens.Issue(subject, SessionTokenTTL, DomainSession)
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"token": token})
}
