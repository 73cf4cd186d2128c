package notifications

import (
	"context"
	"fmt"

	"villagestay/pkg/kafka"
	"villagestay/pkg/logger"

	"github.com/mailjet/mailjet-apiv3-go"
)

type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// EmailDeliverer renders events and sends them directly.
type EmailDeliverer struct {
	sender Sender
}

func NewEmailDeliverer(sender Sender) *EmailDeliverer {
	return &EmailDeliverer{sender: sender}
}

func (d *EmailDeliverer) Deliver(ctx context.Context, event Event) error {
	email, err := Render(event)
	if err != nil {
		return kafka.NewPermanentError("failed to render notification", err)
	}
	return d.sender.Send(ctx, email)
}

type MailjetSender struct {
	send      func(*mailjet.MessagesV31) (*mailjet.ResultsV31, error)
	fromEmail string
	fromName  string
}

func NewMailjetSender(apiKey, secretKey, fromEmail, fromName string) *MailjetSender {
	client := mailjet.NewMailjetClient(apiKey, secretKey)
	return &MailjetSender{
		send: func(m *mailjet.MessagesV31) (*mailjet.ResultsV31, error) {
			return client.SendMailV31(m)
		},
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *MailjetSender) Send(ctx context.Context, email *Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	messages := &mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{
			{
				From: &mailjet.RecipientV31{
					Email: s.fromEmail,
					Name:  s.fromName,
				},
				To: &mailjet.RecipientsV31{
					mailjet.RecipientV31{
						Email: email.To,
						Name:  email.ToName,
					},
				},
				Subject:  email.Subject,
				TextPart: email.TextBody,
				CustomID: email.CustomID,
			},
		},
	}

	result, err := s.send(messages)
	if err != nil {
		return fmt.Errorf("mailjet send failed: %w", err)
	}
	for _, r := range result.ResultsV31 {
		if r.Status != "success" {
			return kafka.NewPermanentError(fmt.Sprintf("mailjet rejected message with status %q", r.Status), nil)
		}
	}
	return nil
}

// LogSender writes emails to the log. Used when no mail provider is configured.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, email *Email) error {
	s.log.Info("Email notification",
		"to", email.To,
		"subject", email.Subject,
		"custom_id", email.CustomID,
		"body", email.TextBody,
	)
	return nil
}
