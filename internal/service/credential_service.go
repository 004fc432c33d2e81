package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/login-service/internal/auth"
	"github.com/spec-kit/login-service/internal/domain"
	"github.com/spec-kit/login-service/internal/repository"
	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

// Success messages returned to API clients.
const (
	MsgAccountCreated  = "Account created successfully"
	MsgRecoverySent    = "Email to change password sent successfully"
	MsgPasswordUpdated = "Password successfully updated"
)

// RegisterInput carries a new account.
type RegisterInput struct {
	Username         string
	Password         string
	Email            string
	SecurityQuestion string
	SecurityAnswer   string
	Role             domain.Role
}

// AccessToken is the login response body.
type AccessToken struct {
	Token string `json:"token"`
}

// CredentialService coordinates registration, login and password recovery.
type CredentialService struct {
	users    repository.UserRepository
	tokens   *auth.TokenService
	hasher   auth.PasswordHasher
	recovery *RecoveryService
	logger   *zap.Logger
}

// CredentialDependencies encapsulates collaborators for the credential service.
type CredentialDependencies struct {
	Users    repository.UserRepository
	Tokens   *auth.TokenService
	Hasher   auth.PasswordHasher
	Recovery *RecoveryService
	Logger   *zap.Logger
}

// NewCredentialService builds the service.
func NewCredentialService(deps CredentialDependencies) *CredentialService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialService{
		users:    deps.Users,
		tokens:   deps.Tokens,
		hasher:   deps.Hasher,
		recovery: deps.Recovery,
		logger:   logger,
	}
}

// Register creates a new account. The username is checked before the email.
// The existence checks and the save are not atomic; the store's unique
// constraints report a concurrent duplicate as the same error.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (string, error) {
	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return "", apperrors.NewUsernameExists(in.Username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", apperrors.NewInternalError(err)
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return "", apperrors.NewEmailExists(in.Email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", apperrors.NewInternalError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	user := &domain.User{
		ID:               uuid.NewString(),
		Username:         in.Username,
		PasswordHash:     hash,
		Email:            in.Email,
		SecurityQuestion: in.SecurityQuestion,
		SecurityAnswer:   in.SecurityAnswer,
		Role:             role,
	}
	if err := s.users.Save(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return "", apperrors.NewUsernameExists(in.Username)
		case errors.Is(err, repository.ErrDuplicateEmail):
			return "", apperrors.NewEmailExists(in.Email)
		default:
			return "", apperrors.NewInternalError(err)
		}
	}

	s.logger.Info("account registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return MsgAccountCreated, nil
}

// Authenticate verifies credentials and issues a session token keyed by username.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (AccessToken, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AccessToken{}, apperrors.NewUsernameNotFound(username)
		}
		return AccessToken{}, apperrors.NewInternalError(err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return AccessToken{}, apperrors.NewIncorrectPassword()
	}

	token, err := s.tokens.Issue(username, auth.SessionTokenTTL, auth.DomainSession)
	if err != nil {
		return AccessToken{}, apperrors.NewInternalError(err)
	}
	return AccessToken{Token: token}, nil
}

// InitiateRecovery sends a reset token to the account owning req.Email when
// the security question and answer match.
func (s *CredentialService) InitiateRecovery(ctx context.Context, req domain.RecoveryRequest) (string, error) {
	stored, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if err := s.recovery.VerifyAndNotify(ctx, req, stored); err != nil {
		return "", err
	}

	s.logger.Info("recovery email dispatched", zap.String("user_id", stored.ID))
	return MsgRecoverySent, nil
}

// CompleteRecovery redeems a reset token for a new password. Only the token
// signature is checked; an expired reset token still identifies its account.
func (s *CredentialService) CompleteRecovery(ctx context.Context, token, newPassword string) (string, error) {
	email, err := s.tokens.ExtractSubject(token, auth.DomainReset)
	if err != nil {
		return "", apperrors.NewTokenInvalid(err)
	}

	stored, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !auth.ValidResetPassword(newPassword) {
		return "", apperrors.NewRejectedPassword()
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	stored.PasswordHash = hash
	if err := s.users.Save(ctx, stored); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	s.logger.Info("password reset", zap.String("user_id", stored.ID))
	return MsgPasswordUpdated, nil
}

// LoadUser returns the stored record for an authenticated subject.
func (s *CredentialService) LoadUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUsernameNotFound(username)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *CredentialService) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewEmailNotFound(email)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
