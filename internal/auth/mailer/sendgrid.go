package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	APIKey   string
	From     string
	FromName string
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.FromName, s.From)
	to := mail.NewEmail("", msg.To)

	m := mail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)

	client := sendgrid.NewSendClient(s.APIKey)
	resp, err := client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %w", ErrDelivery, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: sendgrid returned %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}
