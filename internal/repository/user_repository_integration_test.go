//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/login-service/internal/domain"
	"github.com/spec-kit/login-service/internal/persistence"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("login_test"),
		postgres.WithUsername("login"),
		postgres.WithPassword("login"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

func TestUserRepository_Postgres(t *testing.T) {
	pool := startPostgres(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	alice := &domain.User{
		ID:               "u-1",
		Username:         "alice01",
		PasswordHash:     "digest",
		Email:            "a@x.com",
		SecurityQuestion: "Q",
		SecurityAnswer:   "A",
		Role:             domain.RoleUser,
	}
	require.NoError(t, repo.Save(ctx, alice))
	assert.False(t, alice.CreatedAt.IsZero())

	byName, err := repo.FindByUsername(ctx, "alice01")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byName.Email)

	byName.PasswordHash = "rotated"
	require.NoError(t, repo.Save(ctx, byName))
	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "rotated", byEmail.PasswordHash)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	sameName := *alice
	sameName.ID, sameName.Email = "u-2", "b@x.com"
	assert.ErrorIs(t, repo.Save(ctx, &sameName), ErrDuplicateUsername)

	sameEmail := *alice
	sameEmail.ID, sameEmail.Username = "u-3", "bobby01"
	assert.ErrorIs(t, repo.Save(ctx, &sameEmail), ErrDuplicateEmail)
}
