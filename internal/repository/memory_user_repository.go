package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/login-service/internal/domain"
)

// MemoryUserRepository keeps credential records in process memory. It backs
// development runs without POSTGRES_DSN and the package tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	now   func() time.Time
}

var _ UserRepository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository returns an empty in-memory store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User), now: time.Now}
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

// Save inserts or replaces the record keyed by user.ID.
func (r *MemoryUserRepository) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username {
			return ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	now := r.now().UTC()
	if prev, ok := r.users[user.ID]; ok {
		user.CreatedAt = prev.CreatedAt
	} else {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// Len reports the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *MemoryUserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
