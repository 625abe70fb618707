package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"

	"github.com/oakline/lettermill/internal/common"
)

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// smtpMailer sends mail over SMTP via gomail.
type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates the production mailer.
func NewSMTPMailer(cfg Config) (Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: SMTP host", common.ErrMissingConfig)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: SMTP from address", common.ErrMissingConfig)
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}

	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Send delivers one message. The context deadline is honored around the
// blocking SMTP dial-and-send.
func (m *smtpMailer) Send(ctx context.Context, msg Message) (Receipt, error) {
	if msg.To == "" {
		return Receipt{}, &SendError{Code: "NO_RECIPIENT", Err: fmt.Errorf("message has no recipient")}
	}

	messageID := uuid.NewString()

	email := gomail.NewMessage()
	email.SetHeader("From", m.from)
	email.SetHeader("To", msg.To)
	email.SetHeader("Subject", msg.Subject)
	email.SetHeader("Message-ID", fmt.Sprintf("<%s@lettermill>", messageID))
	email.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(email)
	}()

	select {
	case <-ctx.Done():
		return Receipt{}, &SendError{Code: "CANCELED", Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return Receipt{}, &SendError{Code: "SMTP_SEND", Err: fmt.Errorf("%w: %v", common.ErrMailerFailed, err)}
		}
	}

	return Receipt{MessageID: messageID}, nil
}

// DryRunMailer logs messages instead of sending them.
type DryRunMailer struct {
	Logger *slog.Logger
}

// Send logs the message and returns a synthetic receipt.
func (d *DryRunMailer) Send(_ context.Context, msg Message) (Receipt, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("dry-run email",
		"to", msg.To,
		"subject", msg.Subject,
		"issue_type", msg.IssueType,
		"body_bytes", len(msg.Body))

	return Receipt{MessageID: fmt.Sprintf("dry-run-%d", time.Now().UnixNano())}, nil
}
