package model

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

var BookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted}

func (s BookingStatus) Valid() bool {
	for _, status := range BookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// bookingTransitions lists the moves allowed when strict transitions are on.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled},
	BookingCancelled: {},
	BookingCompleted: {},
}

// TransitionError is returned when a status change is not in the transition table.
type TransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition from %s to %s", e.From, e.To)
}

// CheckTransition validates from -> to against the transition table.
// Cancelling an already cancelled booking is a no-op and always allowed.
func CheckTransition(from, to BookingStatus) error {
	if from == BookingCancelled && to == BookingCancelled {
		return nil
	}
	for _, next := range bookingTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

type Booking struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Listing       string        `json:"listing" bson:"listing" validate:"required,mongodb"`
	Guest         string        `json:"guest" bson:"guest" validate:"required,mongodb"`
	Host          string        `json:"host" bson:"host" validate:"required,mongodb"`
	CheckIn       time.Time     `json:"checkIn" bson:"checkIn" validate:"required"`
	CheckOut      time.Time     `json:"checkOut" bson:"checkOut" validate:"required,gtfield=CheckIn"`
	GuestsCount   int           `json:"guestsCount" bson:"guestsCount" validate:"required,min=1"`
	TotalPrice    float64       `json:"totalPrice" bson:"totalPrice" validate:"min=0"`
	Status        BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	PaymentID     string        `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	PaymentAmount int64         `json:"paymentAmount,omitempty" bson:"paymentAmount,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// EffectiveStatus reports completed for stays whose checkOut has passed,
// without the stored status having been rewritten.
func (b *Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.Status == BookingPending || b.Status == BookingConfirmed {
		if !b.CheckOut.IsZero() && b.CheckOut.Before(now) {
			return BookingCompleted
		}
	}
	return b.Status
}

type BookingUpdate struct {
	CheckIn     *time.Time `json:"checkIn,omitempty"`
	CheckOut    *time.Time `json:"checkOut,omitempty"`
	GuestsCount *int       `json:"guestsCount,omitempty" validate:"omitempty,min=1"`
	TotalPrice  *float64   `json:"totalPrice,omitempty" validate:"omitempty,min=0"`
}

func (u *BookingUpdate) Empty() bool {
	return u.CheckIn == nil && u.CheckOut == nil && u.GuestsCount == nil && u.TotalPrice == nil
}

// BookingView is a booking with its listing and parties expanded.
type BookingView struct {
	ID              string          `json:"id"`
	Listing         *ListingSummary `json:"listing"`
	Guest           *UserSummary    `json:"guest"`
	Host            *UserSummary    `json:"host"`
	CheckIn         time.Time       `json:"checkIn"`
	CheckOut        time.Time       `json:"checkOut"`
	GuestsCount     int             `json:"guestsCount"`
	TotalPrice      float64         `json:"totalPrice"`
	Status          BookingStatus   `json:"status"`
	EffectiveStatus BookingStatus   `json:"effectiveStatus"`
	PaymentID       string          `json:"paymentId,omitempty"`
	PaymentAmount   int64           `json:"paymentAmount,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NewBookingView builds a view. Missing references fall back to id only summaries.
func NewBookingView(b *Booking, listing *ListingSummary, guest, host *UserSummary, now time.Time) *BookingView {
	if listing == nil {
		listing = &ListingSummary{ID: b.Listing}
	}
	if guest == nil {
		guest = &UserSummary{ID: b.Guest}
	}
	if host == nil {
		host = &UserSummary{ID: b.Host}
	}
	return &BookingView{
		ID:              b.ID,
		Listing:         listing,
		Guest:           guest,
		Host:            host,
		CheckIn:         b.CheckIn,
		CheckOut:        b.CheckOut,
		GuestsCount:     b.GuestsCount,
		TotalPrice:      b.TotalPrice,
		Status:          b.Status,
		EffectiveStatus: b.EffectiveStatus(now),
		PaymentID:       b.PaymentID,
		PaymentAmount:   b.PaymentAmount,
		CreatedAt:       b.CreatedAt,
	}
}

// BookingSummary is the dashboard aggregate.
type BookingSummary struct {
	TotalBookings int64   `json:"totalBookings"`
	Upcoming      int64   `json:"upcoming"`
	Completed     int64   `json:"completed"`
	TotalSpent    float64 `json:"totalSpent"`
}

// BookingFilter narrows booking queries. Zero values are ignored.
type BookingFilter struct {
	Guest       string
	Listing     string
	Status      BookingStatus
	CheckInFrom *time.Time
}
