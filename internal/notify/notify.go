// Package notify sends transactional email to learners. Email is never on
// the critical path: callers log failures and carry on.
package notify

import (
	"context"

	"github.com/excellere/excellere/internal/logger"
)

// Address is an email recipient or sender.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Email is one outgoing message.
type Email struct {
	To      Address
	Subject string
	Text    string
	HTML    string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// Nop is the Mailer used when no email provider is configured. It only
// logs.
type Nop struct {
	log *logger.Logger
}

// NewNop creates a Nop mailer. log may be nil.
func NewNop(log *logger.Logger) *Nop {
	if log == nil {
		log = logger.Nop()
	}
	return &Nop{log: log.With("client", "NopMailer")}
}

func (n *Nop) Send(_ context.Context, e Email) error {
	n.log.Debug("email not sent, no provider configured", "to", e.To.Email, "subject", e.Subject)
	return nil
}
