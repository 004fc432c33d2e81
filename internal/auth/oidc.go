package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/spec-kit/login-service/internal/config"
	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

const stateCookie = "oauth_state"

// OIDCUser is the principal produced by an OpenID Connect login. Its
// attributes are the verified ID token claims.
type OIDCUser struct {
	claims map[string]any
}

// NewOIDCUser wraps verified claims.
func NewOIDCUser(claims map[string]any) OIDCUser {
	return OIDCUser{claims: claims}
}

// Attribute returns a claim by name.
func (u OIDCUser) Attribute(name string) (any, bool) {
	v, ok := u.claims[name]
	return v, ok
}

type claimsVerifier func(ctx context.Context, rawIDToken string) (map[string]any, error)

// OIDCLogin drives the authorization code flow against an external provider
// and hands the verified identity to the OAuthBridge.
type OIDCLogin struct {
	oauth  *oauth2.Config
	verify claimsVerifier
	bridge *OAuthBridge
	logger *zap.Logger
}

// NewOIDCLogin discovers the provider and builds the login flow.
func NewOIDCLogin(ctx context.Context, cfg config.OAuthConfig, bridge *OAuthBridge, logger *zap.Logger) (*OIDCLogin, error) {
	if !cfg.Enabled() {
		return nil, errors.New("oauth provider is not configured")
	}
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       cfg.Scopes,
	}
	verify := func(ctx context.Context, raw string) (map[string]any, error) {
		idToken, err := verifier.Verify(ctx, raw)
		if err != nil {
			return nil, err
		}
		claims := map[string]any{}
		if err := idToken.Claims(&claims); err != nil {
			return nil, err
		}
		return claims, nil
	}
	return newOIDCLogin(oauthCfg, verify, bridge, logger), nil
}

func newOIDCLogin(oauthCfg *oauth2.Config, verify claimsVerifier, bridge *OAuthBridge, logger *zap.Logger) *OIDCLogin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OIDCLogin{oauth: oauthCfg, verify: verify, bridge: bridge, logger: logger}
}

// Login handles GET /oauth2/login by redirecting to the provider.
func (l *OIDCLogin) Login(c *fiber.Ctx) error {
	state, err := generateState()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   300,
	})
	return c.Redirect(l.oauth.AuthCodeURL(state), fiber.StatusFound)
}

// Callback handles GET /oauth2/callback.
func (l *OIDCLogin) Callback(c *fiber.Ctx) error {
	state := c.Cookies(stateCookie)
	if state == "" || c.Query("state") != state {
		return apperrors.NewValidationError("invalid oauth state", nil)
	}
	c.ClearCookie(stateCookie)

	token, err := l.oauth.Exchange(c.UserContext(), c.Query("code"))
	if err != nil {
		l.logger.Warn("oauth code exchange failed", zap.Error(err))
		return apperrors.NewBadGateway("failed to exchange authorization code", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return apperrors.NewBadGateway("provider returned no id_token", nil)
	}
	claims, err := l.verify(c.UserContext(), rawIDToken)
	if err != nil {
		l.logger.Warn("id token verification failed", zap.Error(err))
		return apperrors.NewBadGateway("failed to verify id_token", err)
	}

	sub, _ := claims["sub"].(string)
	return l.bridge.OnExternalLoginSuccess(c, Authentication{Principal: NewOIDCUser(claims), Name: sub})
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
