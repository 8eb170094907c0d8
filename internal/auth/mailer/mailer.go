// Package mailer delivers transactional email for the auth flows. Two
// implementations are provided: plain SMTP for self-hosted relays and
// SendGrid for the hosted deployment. Which one runs is a config decision.
package mailer

import (
	"context"
	"errors"
)

// ErrDelivery wraps any provider failure so callers can branch on "the email
// did not go out" without caring which backend was in play.
var ErrDelivery = errors.New("email_delivery_failed")

type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
