package notify

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/wenchangshou/devicectl/internal/config"
)

// EmailTarget delivers alerts over SMTP using a client built fresh for
// every message.
type EmailTarget struct {
	cfg config.EmailNotificationConfig
}

// NewEmailTarget wraps cfg. No connection is opened until the first Notify.
func NewEmailTarget(cfg config.EmailNotificationConfig) *EmailTarget {
	return &EmailTarget{cfg: cfg}
}

// Notify sends message as the body of a plain text email.
func (t *EmailTarget) Notify(ctx context.Context, message string) error {
	m := mail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return fmt.Errorf("email: from: %w", err)
	}
	if err := m.To(t.cfg.To); err != nil {
		return fmt.Errorf("email: to: %w", err)
	}
	m.Subject("devicectl alert")
	m.SetBodyString(mail.TypeTextPlain, message)

	opts := []mail.Option{mail.WithPort(t.cfg.SMTPPort)}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}

	client, err := mail.NewClient(t.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("email: new client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}
