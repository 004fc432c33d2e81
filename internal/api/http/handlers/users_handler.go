package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/login-service/internal/api/dto"
	"github.com/spec-kit/login-service/internal/auth"
	"github.com/spec-kit/login-service/internal/service"
	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

// UsersHandler exposes the /user endpoints.
type UsersHandler struct {
	credentials *service.CredentialService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(credentials *service.CredentialService) *UsersHandler {
	return &UsersHandler{credentials: credentials}
}

// Login handles POST /user/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	token, err := h.credentials.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(token)
}

// Register handles PUT /user/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	msg, err := h.credentials.Register(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.SendString(msg)
}

// ForgotPassword handles POST /user/forgotPassword.
func (h *UsersHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	msg, err := h.credentials.InitiateRecovery(c.UserContext(), req.ToRecovery())
	if err != nil {
		return err
	}
	return c.SendString(msg)
}

// ResetPassword handles POST /user/resetPassword?token=. The whole request
// body is taken verbatim as the new password.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return apperrors.NewValidationError("token query parameter is required", map[string]any{"token": "must not be blank"})
	}

	msg, err := h.credentials.CompleteRecovery(c.UserContext(), token, string(c.Body()))
	if err != nil {
		return err
	}
	return c.SendString(msg)
}

// Me handles GET /user/me. Unauthenticated callers get a 200 describing an
// anonymous principal.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.JSON(dto.MeResponse{Authorities: []string{}})
	}
	return c.JSON(dto.MeResponse{
		Authenticated: true,
		Subject:       principal.Subject,
		Authorities:   principal.Authorities(),
	})
}

// Profile handles GET /user/profile behind RequireAuthenticated.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, err := h.credentials.LoadUser(c.UserContext(), principal.Subject)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProfileResponse(user))
}

// UserProfile handles GET /admin/users/:username behind RequireRole(ADMIN).
func (h *UsersHandler) UserProfile(c *fiber.Ctx) error {
	user, err := h.credentials.LoadUser(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProfileResponse(user))
}
