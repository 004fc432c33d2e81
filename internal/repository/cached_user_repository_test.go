package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/login-service/internal/domain"
)

func TestCachedUserRepository_NilClientReturnsBackingStore(t *testing.T) {
	backing := NewMemoryUserRepository()
	assert.Same(t, backing, NewCachedUserRepository(backing, nil, time.Minute, nil))
}

func TestCachedUserRepository_FallsThroughWhenRedisUnavailable(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryUserRepository()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	repo := NewCachedUserRepository(backing, client, time.Minute, nil)

	user := &domain.User{ID: "1", Username: "alice01", Email: "a@x.com", Role: domain.RoleAdmin}
	require.NoError(t, repo.Save(ctx, user))

	found, err := repo.FindByUsername(ctx, "alice01")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, found.Role)

	_, err = repo.FindByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
