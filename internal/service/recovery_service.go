package service

import (
	"bytes"
	"context"
	"html/template"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/login-service/internal/auth"
	"github.com/spec-kit/login-service/internal/domain"
	"github.com/spec-kit/login-service/internal/mail"
	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

// RecoverySubject is the subject line of every recovery email.
const RecoverySubject = "Password Recovery Token"

var recoveryEmail = template.Must(template.New("recovery").Parse(`<html><body>
<h2>Hello!</h2>
<p>Click the link below to reset your password associated with email: {{.Email}}</p>
{{if .Link}}<p><a href="{{.Link}}" style="color: blue; font-size: 16px;">Reset Password</a></p>
{{end}}<p>Your verification code: {{.Token}}</p>
<p>If you did not request this, please ignore.</p>
</body></html>`))

type recoveryEmailData struct {
	Email string
	Token string
	Link  string
}

// RecoveryService verifies security answers and emails reset tokens.
type RecoveryService struct {
	tokens   *auth.TokenService
	sender   mail.Sender
	resetURL string
	logger   *zap.Logger
}

// RecoveryDependencies encapsulates collaborators for the recovery service.
type RecoveryDependencies struct {
	Tokens   *auth.TokenService
	Sender   mail.Sender
	ResetURL string
	Logger   *zap.Logger
}

// NewRecoveryService builds the service.
func NewRecoveryService(deps RecoveryDependencies) *RecoveryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryService{
		tokens:   deps.Tokens,
		sender:   deps.Sender,
		resetURL: deps.ResetURL,
		logger:   logger,
	}
}

// VerifyAndNotify checks the submitted question and answer against the stored
// record and, when both match exactly, emails a reset token to the stored address.
func (s *RecoveryService) VerifyAndNotify(ctx context.Context, req domain.RecoveryRequest, stored *domain.User) error {
	if !req.MatchesSecurity(stored) {
		return apperrors.NewSecurityMismatch()
	}

	email := stored.Email
	if s.sender == nil || s.sender.From() == "" {
		return apperrors.NewEmailDispatchFailed(email, mail.ErrSenderNotConfigured)
	}

	token, err := s.tokens.Issue(email, auth.ResetTokenTTL, auth.DomainReset)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	body, err := s.renderBody(email, token)
	if err != nil {
		return apperrors.NewEmailDispatchFailed(email, err)
	}

	if err := s.sender.Send(ctx, email, RecoverySubject, body); err != nil {
		s.logger.Error("recovery email failed", zap.String("email", email), zap.Error(err))
		return apperrors.NewEmailDispatchFailed(email, err)
	}
	return nil
}

func (s *RecoveryService) renderBody(email, token string) (string, error) {
	data := recoveryEmailData{Email: email, Token: token}
	if s.resetURL != "" {
		link, err := url.Parse(s.resetURL)
		if err != nil {
			return "", err
		}
		q := link.Query()
		q.Set("token", token)
		link.RawQuery = q.Encode()
		data.Link = link.String()
	}

	var buf bytes.Buffer
	if err := recoveryEmail.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
