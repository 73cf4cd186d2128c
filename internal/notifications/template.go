package notifications

import (
	"bytes"
	"fmt"
	"text/template"
)

var funcs = template.FuncMap{
	// minor units to a display amount, e.g. 850000 -> 8500.00
	"money": func(minor int64) string {
		return fmt.Sprintf("%d.%02d", minor/100, minor%100)
	},
	"price": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
}

const dateLayout = "02 Jan 2006"

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New(name + ".subject").Funcs(funcs).Parse(subject)),
		body:    template.Must(template.New(name + ".body").Funcs(funcs).Parse(body)),
	}
}

var templates = map[EventType]map[string]emailTemplate{
	EventBookingCreated: {
		RoleGuest: mustTemplate("created.guest",
			`Booking request received: {{.Booking.ListingTitle}}`,
			`Hi {{.Recipient.Name}},

Your booking for {{.Booking.ListingTitle}} from {{.Booking.CheckIn.Format "`+dateLayout+`"}} to {{.Booking.CheckOut.Format "`+dateLayout+`"}} for {{.Booking.GuestsCount}} guest(s) is pending payment.

Total: {{price .Booking.TotalPrice}}
Booking reference: {{.Booking.ID}}
`),
		RoleHost: mustTemplate("created.host",
			`New booking request for {{.Booking.ListingTitle}}`,
			`Hi {{.Recipient.Name}},

A new booking for {{.Booking.ListingTitle}} was requested from {{.Booking.CheckIn.Format "`+dateLayout+`"}} to {{.Booking.CheckOut.Format "`+dateLayout+`"}} for {{.Booking.GuestsCount}} guest(s).

Booking reference: {{.Booking.ID}}
`),
	},
	EventBookingCancelled: {
		RoleGuest: mustTemplate("cancelled.guest",
			`Booking cancelled: {{.Booking.ListingTitle}}`,
			`Hi {{.Recipient.Name}},

Your booking {{.Booking.ID}} for {{.Booking.ListingTitle}} has been cancelled.
`),
		RoleHost: mustTemplate("cancelled.host",
			`Booking cancelled for {{.Booking.ListingTitle}}`,
			`Hi {{.Recipient.Name}},

Booking {{.Booking.ID}} for {{.Booking.ListingTitle}} from {{.Booking.CheckIn.Format "`+dateLayout+`"}} was cancelled by the guest.
`),
	},
	EventPaymentCaptured: {
		RoleGuest: mustTemplate("captured.guest",
			`Payment confirmed: {{.Booking.ListingTitle}}`,
			`Hi {{.Recipient.Name}},

We received your payment of {{money .Share}} (payment {{.PaymentID}}). Your stay at {{.Booking.ListingTitle}} is confirmed.
`),
		RoleHost: mustTemplate("captured.host",
			`Booking confirmed for {{.Booking.ListingTitle}}`,
			`Hi {{.Recipient.Name}},

Booking {{.Booking.ID}} has been paid. Your share is {{money .Share}} of {{money .Payment.Amount}}.
`),
	},
}

type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	CustomID string
}

// Render builds the email for event.
func Render(event Event) (*Email, error) {
	byRole, ok := templates[event.Type]
	if !ok {
		return nil, fmt.Errorf("no template for event type %q", event.Type)
	}
	tmpl, ok := byRole[event.Recipient.Role]
	if !ok {
		return nil, fmt.Errorf("no %s template for role %q", event.Type, event.Recipient.Role)
	}
	if event.Type == EventPaymentCaptured && event.Payment == nil {
		return nil, fmt.Errorf("%s event without payment details", event.Type)
	}

	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, &event); err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	if err := tmpl.body.Execute(&body, &event); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	return &Email{
		To:       event.Recipient.Email,
		ToName:   event.Recipient.Name,
		Subject:  subject.String(),
		TextBody: body.String(),
		CustomID: event.ID,
	}, nil
}
