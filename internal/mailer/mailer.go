// Package mailer delivers assembled claim forms by email. One synchronous
// attempt per request, no retry; every transport failure surfaces as a
// single DispatchError with the underlying diagnostic attached.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/yuki-ame/MediClaim.AI/internal/common"
)

const claimSubject = "New Medical Claim Submission"

// Mailer is the delivery capability.
type Mailer interface {
	Send(ctx context.Context, recipient, body string) error
}

type Config struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPMailer sends over implicit TLS (SMTPS), the transport the claim
// pipeline has always used.
type SMTPMailer struct {
	cfg    Config
	logger *slog.Logger
}

func NewSMTPMailer(cfg Config, logger *slog.Logger) *SMTPMailer {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers body to recipient with the fixed claim submission subject.
func (m *SMTPMailer) Send(ctx context.Context, recipient, body string) error {
	start := time.Now()

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return m.dispatchError(recipient, start, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err))
	}
	if err := msg.To(recipient); err != nil {
		return m.dispatchError(recipient, start, fmt.Errorf("invalid recipient %q: %w", recipient, err))
	}
	msg.Subject(claimSubject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return m.dispatchError(recipient, start, fmt.Errorf("smtp client: %w", err))
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return m.dispatchError(recipient, start, fmt.Errorf("send: %w", err))
	}

	m.logger.Info("mail.sent",
		"to", recipient,
		"body_len", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (m *SMTPMailer) dispatchError(recipient string, start time.Time, cause error) error {
	m.logger.Error("mail.failed",
		"to", recipient,
		"error", cause,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return common.NewAppError("DISPATCH_ERROR", cause.Error(), common.ErrDispatch)
}
