// Package smtpmail delivers mailer.Message values over SMTP using gomail.
package smtpmail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/MrEthical07/mediauth/mailer"
)

// Config holds SMTP server settings. From defaults to Username.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends one SMTP transaction per message.
type Mailer struct {
	from   string
	dialer dialer
}

var _ mailer.Mailer = (*Mailer)(nil)

func New(cfg Config) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{
		from:   from,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send builds an HTML message and dials the server. gomail has no context
// support, so ctx is only checked before dialing.
func (m *Mailer) Send(ctx context.Context, msg mailer.Message) error {
	const op = "smtpmail.Send"

	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.Body)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
