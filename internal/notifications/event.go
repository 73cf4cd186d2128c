// Package notifications delivers booking and payment events to guests and
// hosts outside the request path.
package notifications

import (
	"time"

	"villagestay/pkg/model"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingCancelled EventType = "booking.cancelled"
	EventPaymentCaptured  EventType = "payment.captured"
)

const (
	RoleGuest = "guest"
	RoleHost  = "host"
)

// SchemaVersion is stamped on every Kafka message carrying an Event.
const SchemaVersion = "1"

type Recipient struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type BookingInfo struct {
	ID           string              `json:"id"`
	ListingID    string              `json:"listingId"`
	ListingTitle string              `json:"listingTitle"`
	CheckIn      time.Time           `json:"checkIn"`
	CheckOut     time.Time           `json:"checkOut"`
	GuestsCount  int                 `json:"guestsCount"`
	TotalPrice   float64             `json:"totalPrice"`
	Status       model.BookingStatus `json:"status"`
}

type Event struct {
	ID            string              `json:"id"`
	Type          EventType           `json:"type"`
	OccurredAt    time.Time           `json:"occurredAt"`
	CorrelationID string              `json:"correlationId,omitempty"`
	Recipient     Recipient           `json:"recipient"`
	Booking       BookingInfo         `json:"booking"`
	Payment       *model.PaymentSplit `json:"payment,omitempty"`
	PaymentID     string              `json:"paymentId,omitempty"`
}

// Share returns the part of the captured amount that belongs to the recipient.
func (e *Event) Share() int64 {
	if e.Payment == nil {
		return 0
	}
	if e.Recipient.Role == RoleHost {
		return e.Payment.HostShare
	}
	return e.Payment.Amount
}

// ForParties builds one event for the guest and one for the host. Parties
// without an email address are skipped. Guest and host may be the same user;
// they still receive both messages since each carries a different share.
func ForParties(eventType EventType, view *model.BookingView, correlationID string) []Event {
	info := BookingInfo{
		ID:          view.ID,
		CheckIn:     view.CheckIn,
		CheckOut:    view.CheckOut,
		GuestsCount: view.GuestsCount,
		TotalPrice:  view.TotalPrice,
		Status:      view.Status,
	}
	if view.Listing != nil {
		info.ListingID = view.Listing.ID
		info.ListingTitle = view.Listing.Title
	}

	now := time.Now().UTC()
	var events []Event
	add := func(u *model.UserSummary, role string) {
		if u == nil || u.Email == "" {
			return
		}
		events = append(events, Event{
			ID:            uuid.NewString(),
			Type:          eventType,
			OccurredAt:    now,
			CorrelationID: correlationID,
			Recipient:     Recipient{UserID: u.ID, Email: u.Email, Name: u.Name, Role: role},
			Booking:       info,
		})
	}

	add(view.Guest, RoleGuest)
	add(view.Host, RoleHost)
	return events
}

// WithPayment attaches the captured split to each event.
func WithPayment(events []Event, paymentID string, split model.PaymentSplit) []Event {
	for i := range events {
		s := split
		events[i].Payment = &s
		events[i].PaymentID = paymentID
	}
	return events
}
