package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/login-service/internal/domain"
)

const (
	usernameKeyPrefix = "login:user:username:"
	emailKeyPrefix    = "login:user:email:"
)

// cachedUser is the Redis representation of a credential record.
type cachedUser struct {
	ID               string      `json:"id"`
	Username         string      `json:"username"`
	PasswordHash     string      `json:"password_hash"`
	Email            string      `json:"email"`
	SecurityQuestion string      `json:"security_question"`
	SecurityAnswer   string      `json:"security_answer"`
	Role             domain.Role `json:"role"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// cachedUserRepository is a read-through Redis cache in front of another
// UserRepository. Redis failures are logged and fall through to the backing store.
type cachedUserRepository struct {
	next   UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps next with a Redis cache. A nil client returns next unchanged.
func NewCachedUserRepository(next UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) UserRepository {
	if client == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedUserRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.readThrough(ctx, usernameKeyPrefix+username, func() (*domain.User, error) {
		return r.next.FindByUsername(ctx, username)
	})
}

func (r *cachedUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.readThrough(ctx, emailKeyPrefix+email, func() (*domain.User, error) {
		return r.next.FindByEmail(ctx, email)
	})
}

func (r *cachedUserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := r.next.Save(ctx, user); err != nil {
		return err
	}
	if err := r.client.Del(ctx, usernameKeyPrefix+user.Username, emailKeyPrefix+user.Email).Err(); err != nil {
		r.logger.Warn("user cache invalidation failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (r *cachedUserRepository) readThrough(ctx context.Context, key string, load func() (*domain.User, error)) (*domain.User, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedUser
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached.toDomain(), nil
		}
		r.logger.Warn("discarding undecodable cached user", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Debug("user cache read failed", zap.String("key", key), zap.Error(err))
	}

	user, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(fromDomain(user))
	if err == nil {
		err = r.client.Set(ctx, key, payload, r.ttl).Err()
	}
	if err != nil {
		r.logger.Debug("user cache write failed", zap.String("key", key), zap.Error(err))
	}
	return user, nil
}

func fromDomain(u *domain.User) cachedUser {
	return cachedUser{
		ID:               u.ID,
		Username:         u.Username,
		PasswordHash:     u.PasswordHash,
		Email:            u.Email,
		SecurityQuestion: u.SecurityQuestion,
		SecurityAnswer:   u.SecurityAnswer,
		Role:             u.Role,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (c cachedUser) toDomain() *domain.User {
	return &domain.User{
		ID:               c.ID,
		Username:         c.Username,
		PasswordHash:     c.PasswordHash,
		Email:            c.Email,
		SecurityQuestion: c.SecurityQuestion,
		SecurityAnswer:   c.SecurityAnswer,
		Role:             c.Role,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
