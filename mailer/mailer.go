// Package mailer defines the outbound mail capability the password reset
// flow depends on. Concrete transports live in sub-packages: smtpmail sends
// directly over SMTP, amqpmail hands messages to a queue for a relay worker.
package mailer

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidMessage is returned for messages without a recipient or subject.
var ErrInvalidMessage = errors.New("mail message requires recipient and subject")

// Message is one outbound mail. Body is HTML.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" || strings.TrimSpace(m.Subject) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Mailer delivers a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Func adapts a function to Mailer.
type Func func(ctx context.Context, msg Message) error

func (f Func) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
