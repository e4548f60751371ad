package sender

import (
	"context"
	"fmt"
	"time"

	mail "github.com/go-mail/mail/v2"

	"notify-engine/internal/domain/entity"
)

// SMTPConfig contains configuration for SMTP email delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address on outgoing mail.
	From string

	// Timeout bounds the SMTP dial and send.
	Timeout time.Duration
}

// EmailSender delivers rendered content over SMTP.
type EmailSender struct {
	config SMTPConfig
	dialer *mail.Dialer
}

// NewEmailSender creates an SMTP email sender.
func NewEmailSender(config SMTPConfig) *EmailSender {
	dialer := mail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	if config.Timeout > 0 {
		dialer.Timeout = config.Timeout
	}
	return &EmailSender{config: config, dialer: dialer}
}

// Kind returns the channel this sender serves.
func (e *EmailSender) Kind() entity.ChannelKind {
	return entity.ChannelEmail
}

// Send delivers the content to the target address. The SMTP library has no
// context support, so the dial runs in a goroutine and the context can only
// abandon the wait, not the connection; the dialer timeout caps the latter.
func (e *EmailSender) Send(ctx context.Context, target string, content entity.RenderedContent) (entity.SendResult, error) {
	if target == "" {
		return entity.SendResult{}, fmt.Errorf("%w: empty email address", ErrInvalidTarget)
	}

	m := mail.NewMessage()
	m.SetHeader("From", e.config.From)
	m.SetHeader("To", target)
	m.SetHeader("Subject", content.Subject)
	m.SetBody("text/plain", content.Body)

	done := make(chan error, 1)
	go func() { done <- e.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return entity.SendResult{}, fmt.Errorf("smtp send: %w", err)
		}
		return entity.SendResult{ProviderRef: "smtp:" + e.config.Host}, nil
	case <-ctx.Done():
		return entity.SendResult{}, fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
