package dto

import (
	"github.com/spec-kit/login-service/internal/domain"
	"github.com/spec-kit/login-service/internal/service"
)

// LoginRequest payload for POST /user/login.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank,min=6"`
	Password string `json:"password" validate:"notblank,registration_password"`
}

// Validate applies the login field rules.
func (r LoginRequest) Validate() error {
	return check(r)
}

// RegisterRequest payload for PUT /user/register.
type RegisterRequest struct {
	Username         string `json:"username" validate:"notblank,min=6"`
	Password         string `json:"password" validate:"notblank,registration_password"`
	Email            string `json:"email" validate:"notblank,email"`
	SecurityQuestion string `json:"securityQuestion" validate:"notblank"`
	SecurityAnswer   string `json:"securityAnswer" validate:"notblank"`
	Role             string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// Validate applies the registration field rules.
func (r RegisterRequest) Validate() error {
	return check(r)
}

// ToInput converts a validated request. A missing role becomes USER.
func (r RegisterRequest) ToInput() service.RegisterInput {
	role, _ := domain.ParseRole(r.Role)
	return service.RegisterInput{
		Username:         r.Username,
		Password:         r.Password,
		Email:            r.Email,
		SecurityQuestion: r.SecurityQuestion,
		SecurityAnswer:   r.SecurityAnswer,
		Role:             role,
	}
}

// ForgotPasswordRequest payload for POST /user/forgotPassword.
type ForgotPasswordRequest struct {
	Email            string `json:"email" validate:"notblank,email"`
	SecurityQuestion string `json:"securityQuestion" validate:"notblank"`
	SecurityAnswer   string `json:"securityAnswer" validate:"notblank"`
}

// Validate applies the recovery field rules.
func (r ForgotPasswordRequest) Validate() error {
	return check(r)
}

// ToRecovery converts a validated request.
func (r ForgotPasswordRequest) ToRecovery() domain.RecoveryRequest {
	return domain.RecoveryRequest{
		Email:            r.Email,
		SecurityQuestion: r.SecurityQuestion,
		SecurityAnswer:   r.SecurityAnswer,
	}
}

// MeResponse describes the caller as seen by the authentication gate.
type MeResponse struct {
	Authenticated bool     `json:"authenticated"`
	Subject       string   `json:"subject,omitempty"`
	Authorities   []string `json:"authorities"`
}

// ProfileResponse is the stored profile of the authenticated caller.
type ProfileResponse struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities"`
}

// NewProfileResponse omits credentials and security answers.
func NewProfileResponse(u *domain.User) ProfileResponse {
	return ProfileResponse{
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		Authorities: u.Authorities(),
	}
}
