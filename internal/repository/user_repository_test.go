package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/login-service/internal/domain"
)

var userColumns = []string{
	"id", "username", "password_hash", "email", "security_question", "security_answer", "role", "created_at", "updated_at",
}

func TestUserRepository_FindByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE username=\$1`).
		WithArgs("alice01").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("u-1", "alice01", "$2a$digest", "a@x.com", "Q", "A", domain.RoleUser, created, created))

	repo := NewUserRepository(mock)
	user, err := repo.FindByUsername(context.Background(), "alice01")
	require.NoError(t, err)

	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\$1`).
		WithArgs("nobody@x.com").
		WillReturnError(pgx.ErrNoRows)

	repo := NewUserRepository(mock)
	_, err = repo.FindByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Save(t *testing.T) {
	user := &domain.User{
		ID:               "u-1",
		Username:         "alice01",
		PasswordHash:     "$2a$digest",
		Email:            "a@x.com",
		SecurityQuestion: "Q",
		SecurityAnswer:   "A",
		Role:             domain.RoleUser,
	}

	t.Run("upserts and scans timestamps", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		stamp := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		mock.ExpectQuery(`INSERT INTO users .+ ON CONFLICT \(id\) DO UPDATE`).
			WithArgs("u-1", "alice01", "$2a$digest", "a@x.com", "Q", "A", domain.RoleUser).
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(stamp, stamp))

		saved := *user
		require.NoError(t, NewUserRepository(mock).Save(context.Background(), &saved))
		assert.Equal(t, stamp, saved.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violations", func(t *testing.T) {
		tests := []struct {
			constraint string
			want       error
		}{
			{constraint: "users_username_key", want: ErrDuplicateUsername},
			{constraint: "users_email_key", want: ErrDuplicateEmail},
		}
		for _, tt := range tests {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)

			mock.ExpectQuery(`INSERT INTO users`).
				WithArgs("u-1", "alice01", "$2a$digest", "a@x.com", "Q", "A", domain.RoleUser).
				WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: tt.constraint})

			saved := *user
			err = NewUserRepository(mock).Save(context.Background(), &saved)
			assert.ErrorIs(t, err, tt.want, tt.constraint)
			mock.Close()
		}
	})

	t.Run("passes other errors through", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		boom := errors.New("connection reset")
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("u-1", "alice01", "$2a$digest", "a@x.com", "Q", "A", domain.RoleUser).
			WillReturnError(boom)

		saved := *user
		assert.ErrorIs(t, NewUserRepository(mock).Save(context.Background(), &saved), boom)
	})
}
