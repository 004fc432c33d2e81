package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

type usernameOnly string

func (u usernameOnly) Username() string { return string(u) }

type attributesAndUsername struct {
	OIDCUser
	name string
}

func (a attributesAndUsername) Username() string { return a.name }

func TestSubjectOf(t *testing.T) {
	tests := []struct {
		name  string
		authn Authentication
		want  string
	}{
		{
			name:  "email attribute wins",
			authn: Authentication{Principal: NewOIDCUser(map[string]any{"email": "a@x.com", "sub": "123"}), Name: "123"},
			want:  "a@x.com",
		},
		{
			name: "email attribute beats username",
			authn: Authentication{
				Principal: attributesAndUsername{OIDCUser: NewOIDCUser(map[string]any{"email": "a@x.com"}), name: "alice01"},
				Name:      "fallback",
			},
			want: "a@x.com",
		},
		{
			name: "attribute principal without email falls through",
			authn: Authentication{
				Principal: attributesAndUsername{OIDCUser: NewOIDCUser(map[string]any{"sub": "123"}), name: "alice01"},
				Name:      "fallback",
			},
			want: "alice01",
		},
		{
			name:  "non-string email is ignored",
			authn: Authentication{Principal: NewOIDCUser(map[string]any{"email": 42}), Name: "123"},
			want:  "123",
		},
		{
			name:  "username principal",
			authn: Authentication{Principal: usernameOnly("alice01"), Name: "fallback"},
			want:  "alice01",
		},
		{
			name:  "plain string principal",
			authn: Authentication{Principal: "alice01", Name: "fallback"},
			want:  "alice01",
		},
		{
			name:  "generic name fallback",
			authn: Authentication{Principal: struct{}{}, Name: "fallback"},
			want:  "fallback",
		},
		{
			name:  "nil principal",
			authn: Authentication{Name: "fallback"},
			want:  "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubjectOf(tt.authn))
		})
	}
}

func TestOAuthBridge_OnExternalLoginSuccess(t *testing.T) {
	tokens, _ := newTestTokens(t)
	bridge := NewOAuthBridge(tokens)

	app := fiber.New()
	app.Get("/done", func(c *fiber.Ctx) error {
		return bridge.OnExternalLoginSuccess(c, Authentication{
			Principal: NewOIDCUser(map[string]any{"email": "a@x.com"}),
			Name:      "123",
		})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/done", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)

	assert.True(t, tokens.Validate(body["token"], DomainSession))
	subject, err := tokens.ExtractSubject(body["token"], DomainSession)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
}

func TestOAuthBridge_RejectsEmptySubject(t *testing.T) {
	counter := &countingIssuer{byDomain: map[string]int{}}
	tokens, _ := newTestTokens(t, WithIssueCounter(counter))
	bridge := NewOAuthBridge(tokens)

	var bridgeErr error
	app := fiber.New()
	app.Get("/done", func(c *fiber.Ctx) error {
		bridgeErr = bridge.OnExternalLoginSuccess(c, Authentication{
			Principal: NewOIDCUser(map[string]any{"email": ""}),
		})
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/done", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.Error(t, bridgeErr)
	assert.True(t, apperrors.Is(bridgeErr, apperrors.CodeUnauthorized))
	assert.Empty(t, counter.byDomain)
}

func newTokenEndpoint(t *testing.T, payload map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOIDCLogin(t *testing.T, tokenURL string, verify claimsVerifier) (*OIDCLogin, *TokenService) {
	t.Helper()
	tokens, _ := newTestTokens(t)
	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/oauth2/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://idp.example.com/auth", TokenURL: tokenURL},
		Scopes:       []string{"openid", "email"},
	}
	return newOIDCLogin(cfg, verify, NewOAuthBridge(tokens), nil), tokens
}

func oidcApp(login *OIDCLogin) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/oauth2/login", login.Login)
	app.Get("/oauth2/callback", login.Callback)
	return app
}

func callback(t *testing.T, app *fiber.App, query, state string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/oauth2/callback?"+query, nil)
	if state != "" {
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestOIDCLogin_Login(t *testing.T) {
	login, _ := newTestOIDCLogin(t, "http://unused", nil)
	app := oidcApp(login)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/oauth2/login", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var state string
	for _, c := range resp.Cookies() {
		if c.Name == stateCookie {
			state = c.Value
			assert.True(t, c.HttpOnly)
		}
	}
	require.NotEmpty(t, state)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", location.Host)
	assert.Equal(t, state, location.Query().Get("state"))
	assert.Equal(t, "client", location.Query().Get("client_id"))
}

func TestOIDCLogin_Callback(t *testing.T) {
	verified := func(_ context.Context, raw string) (map[string]any, error) {
		if raw != "raw-id-token" {
			return nil, errors.New("bad signature")
		}
		return map[string]any{"sub": "1234", "email": "a@x.com"}, nil
	}

	t.Run("issues a session token for the verified email", func(t *testing.T) {
		srv := newTokenEndpoint(t, map[string]any{"access_token": "at", "token_type": "Bearer", "id_token": "raw-id-token"})
		login, tokens := newTestOIDCLogin(t, srv.URL, verified)

		resp := callback(t, oidcApp(login), "code=good-code&state=s1", "s1")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		subject, err := tokens.ExtractSubject(body["token"], DomainSession)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", subject)
	})

	t.Run("state mismatch", func(t *testing.T) {
		login, _ := newTestOIDCLogin(t, "http://unused", verified)
		app := oidcApp(login)

		assert.Equal(t, http.StatusBadRequest, callback(t, app, "code=good-code&state=s1", "other").StatusCode)
		assert.Equal(t, http.StatusBadRequest, callback(t, app, "code=good-code&state=s1", "").StatusCode)
	})

	t.Run("exchange failure", func(t *testing.T) {
		srv := newTokenEndpoint(t, nil)
		login, _ := newTestOIDCLogin(t, srv.URL, verified)

		resp := callback(t, oidcApp(login), "code=bad-code&state=s1", "s1")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("missing id token", func(t *testing.T) {
		srv := newTokenEndpoint(t, map[string]any{"access_token": "at", "token_type": "Bearer"})
		login, _ := newTestOIDCLogin(t, srv.URL, verified)

		resp := callback(t, oidcApp(login), "code=good-code&state=s1", "s1")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("identity without subject", func(t *testing.T) {
		anonymous := func(context.Context, string) (map[string]any, error) {
			return map[string]any{"email_verified": false}, nil
		}
		srv := newTokenEndpoint(t, map[string]any{"access_token": "at", "token_type": "Bearer", "id_token": "raw-id-token"})
		login, _ := newTestOIDCLogin(t, srv.URL, anonymous)

		resp := callback(t, oidcApp(login), "code=good-code&state=s1", "s1")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("verification failure", func(t *testing.T) {
		srv := newTokenEndpoint(t, map[string]any{"access_token": "at", "token_type": "Bearer", "id_token": "forged"})
		login, _ := newTestOIDCLogin(t, srv.URL, verified)

		resp := callback(t, oidcApp(login), "code=good-code&state=s1", "s1")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}
