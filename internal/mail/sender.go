package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/login-service/internal/config"
)

// ErrSenderNotConfigured is returned when no sender address is configured.
var ErrSenderNotConfigured = errors.New("email sender configuration is missing")

// Sender delivers an HTML email to a single recipient.
type Sender interface {
	From() string
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender delivers mail through an authenticated SMTP relay.
type SMTPSender struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSMTPSender builds a sender from mail configuration.
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) *SMTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

// From returns the configured sender address.
func (s *SMTPSender) From() string {
	return strings.TrimSpace(s.cfg.From)
}

// Send composes and delivers the message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.From() == "" {
		return ErrSenderNotConfigured
	}
	if strings.TrimSpace(s.cfg.Host) == "" {
		return errors.New("smtp host is not configured")
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.From()); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	s.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// LogSender records messages in the log instead of delivering them. It is
// used when no SMTP host is configured.
type LogSender struct {
	from   string
	logger *zap.Logger
}

// NewLogSender builds a sender that only logs.
func NewLogSender(from string, logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{from: strings.TrimSpace(from), logger: logger}
}

// From returns the configured sender address.
func (s *LogSender) From() string {
	return s.from
}

// Send logs the message metadata.
func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if s.from == "" {
		return ErrSenderNotConfigured
	}
	s.logger.Info("email delivery disabled; message logged",
		zap.String("from", s.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)))
	return nil
}

// NewSender returns an SMTP sender when a host is configured and a LogSender otherwise.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if strings.TrimSpace(cfg.Host) == "" {
		return NewLogSender(cfg.From, logger)
	}
	return NewSMTPSender(cfg, logger)
}
