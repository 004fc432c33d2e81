package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/login-service/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when saving would reuse another user's username.
	ErrDuplicateUsername = errors.New("username already stored")
	// ErrDuplicateEmail is returned when saving would reuse another user's email.
	ErrDuplicateEmail = errors.New("email already stored")
)

// UserRepository defines persistence access for credential records.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
}

// DBTX is the subset of the pgx pool used by the Postgres repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, password_hash, email, security_question, security_answer, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            username=EXCLUDED.username,
            password_hash=EXCLUDED.password_hash,
            email=EXCLUDED.email,
            security_question=EXCLUDED.security_question,
            security_answer=EXCLUDED.security_answer,
            role=EXCLUDED.role,
            updated_at=NOW()
        RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.SecurityQuestion,
		user.SecurityAnswer,
		user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapWriteError(err)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, email, security_question, security_answer, role, created_at, updated_at
        FROM users WHERE username=$1`

	return r.scanOne(ctx, query, username)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, email, security_question, security_answer, role, created_at, updated_at
        FROM users WHERE email=$1`

	return r.scanOne(ctx, query, email)
}

func (r *userRepository) scanOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.SecurityQuestion,
		&user.SecurityAnswer,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return ErrDuplicateUsername
		case emailConstraint:
			return ErrDuplicateEmail
		}
	}
	return err
}
