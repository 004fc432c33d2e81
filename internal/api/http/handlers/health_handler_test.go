package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/login-service/internal/persistence"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func ready(t *testing.T, deps map[string]Pinger) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/health/ready", NewHealthHandler("login-service", "test", deps).Ready)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestReadyTreatsUnconfiguredDependenciesAsDisabled(t *testing.T) {
	status, body := ready(t, map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error { return nil }),
		"redis":    pingFunc(func(context.Context) error { return persistence.ErrNotConfigured }),
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "disabled"}, body["dependencies"])
}

func TestReadyFailsOnUnreachableDependency(t *testing.T) {
	status, body := ready(t, map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errBody["code"])
	assert.Equal(t, map[string]any{"postgres": "connection refused"}, errBody["details"])
}
