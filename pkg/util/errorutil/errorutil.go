package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API clients.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeUsernameExists      = "USERNAME_EXISTS"
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeUsernameNotFound    = "USERNAME_NOT_FOUND"
	CodeIncorrectPassword   = "INCORRECT_PASSWORD"
	CodeEmailNotFound       = "EMAIL_NOT_FOUND"
	CodeSecurityMismatch    = "SECURITY_MISMATCH"
	CodeEmailDispatchFailed = "EMAIL_DISPATCH_FAILED"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeBadGateway          = "BAD_GATEWAY"
	CodeInternal            = "INTERNAL_ERROR"
)

// statusByCode is the fixed kind-to-status table used by the constructors.
var statusByCode = map[string]int{
	CodeValidationFailed:    http.StatusBadRequest,
	CodeUsernameExists:      http.StatusBadRequest,
	CodeEmailExists:         http.StatusBadRequest,
	CodeUsernameNotFound:    http.StatusUnauthorized,
	CodeIncorrectPassword:   http.StatusUnauthorized,
	CodeEmailNotFound:       http.StatusBadRequest,
	CodeSecurityMismatch:    http.StatusBadRequest,
	CodeEmailDispatchFailed: http.StatusInternalServerError,
	CodeTokenInvalid:        http.StatusBadRequest,
	CodeUnauthorized:        http.StatusUnauthorized,
	CodeForbidden:           http.StatusForbidden,
	CodeNotFound:            http.StatusNotFound,
	CodeBadGateway:          http.StatusBadGateway,
	CodeInternal:            http.StatusInternalServerError,
}

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func newKind(code, message string) *DomainError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return NewDomainError(code, message, status, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewUsernameExists(username string) error {
	return newKind(CodeUsernameExists, fmt.Sprintf("Username: %s already exists", username))
}

func NewEmailExists(email string) error {
	return newKind(CodeEmailExists, fmt.Sprintf("Email: %s already exists", email))
}

func NewUsernameNotFound(username string) error {
	return newKind(CodeUsernameNotFound, fmt.Sprintf("Username: %s was not found", username))
}

// NewIncorrectPassword reports a login password that does not match the stored digest.
func NewIncorrectPassword() error {
	return newKind(CodeIncorrectPassword, "Incorrect password")
}

// NewRejectedPassword shares the IncorrectPassword code but is a client error:
// it reports a new password that fails the reset policy.
func NewRejectedPassword() error {
	return NewDomainError(CodeIncorrectPassword, "Incorrect password", http.StatusBadRequest, nil)
}

func NewEmailNotFound(email string) error {
	return newKind(CodeEmailNotFound, fmt.Sprintf("Email: %s is not associated with an Account", email))
}

func NewSecurityMismatch() error {
	return newKind(CodeSecurityMismatch, "The given security question or answer was incorrect")
}

// NewEmailDispatchFailed wraps a transport or configuration failure for the target address.
func NewEmailDispatchFailed(email string, err error) error {
	de := newKind(CodeEmailDispatchFailed, fmt.Sprintf("Failed to send email to %s", email))
	de.Err = err
	return de
}

func NewTokenInvalid(err error) error {
	de := newKind(CodeTokenInvalid, "invalid token")
	de.Err = err
	return de
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return newKind(CodeUnauthorized, message)
}

func NewForbidden(message string) error {
	return newKind(CodeForbidden, message)
}

func NewBadGateway(message string, err error) error {
	de := newKind(CodeBadGateway, message)
	de.Err = err
	return de
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Is reports whether err carries the given domain error code.
func Is(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	return NewInternalError(err).(*DomainError)
}

// codeForStatus picks the code for framework errors such as unmatched routes.
func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidationFailed
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusBadGateway:
		return CodeBadGateway
	}
	return CodeInternal
}
