package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPayment(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		host     int64
		platform int64
	}{
		{"round amount", 10000, 8500, 1500},
		{"half rounds up", 10001, 8501, 1500},
		{"below half rounds down", 10002, 8502, 1500},
		{"tiny amount", 1, 1, 0},
		{"zero", 0, 0, 0},
		{"odd total", 7499, 6374, 1125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split := SplitPayment(tt.amount)
			assert.Equal(t, tt.amount, split.Amount)
			assert.Equal(t, tt.host, split.HostShare)
			assert.Equal(t, tt.platform, split.PlatformShare)
			assert.Equal(t, tt.amount, split.HostShare+split.PlatformShare)
		})
	}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingCancelled, BookingCancelled, true},
		{BookingConfirmed, BookingConfirmed, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCompleted, BookingConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			var transitionErr *TransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, tt.from, transitionErr.From)
			assert.Equal(t, tt.to, transitionErr.To)
		})
	}
}

func TestBookingStatus_Valid(t *testing.T) {
	for _, s := range BookingStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, BookingStatus("refunded").Valid())
	assert.False(t, BookingStatus("").Valid())
}

func TestBooking_EffectiveStatus(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		status   BookingStatus
		checkOut time.Time
		want     BookingStatus
	}{
		{"pending past stay", BookingPending, past, BookingCompleted},
		{"confirmed past stay", BookingConfirmed, past, BookingCompleted},
		{"cancelled past stay stays cancelled", BookingCancelled, past, BookingCancelled},
		{"confirmed future stay", BookingConfirmed, future, BookingConfirmed},
		{"pending future stay", BookingPending, future, BookingPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.status, CheckOut: tt.checkOut}
			assert.Equal(t, tt.want, b.EffectiveStatus(now))
		})
	}
}

func TestNewBookingView_FallsBackToIDs(t *testing.T) {
	b := &Booking{
		ID:      "65f000000000000000000001",
		Listing: "65f000000000000000000002",
		Guest:   "65f000000000000000000003",
		Host:    "65f000000000000000000003",
		Status:  BookingPending,
	}

	view := NewBookingView(b, nil, nil, nil, time.Now())

	assert.Equal(t, b.Listing, view.Listing.ID)
	assert.Equal(t, b.Guest, view.Guest.ID)
	assert.Equal(t, b.Host, view.Host.ID)
}

func TestBookingUpdate_Empty(t *testing.T) {
	assert.True(t, (&BookingUpdate{}).Empty())
	count := 2
	assert.False(t, (&BookingUpdate{GuestsCount: &count}).Empty())
}

func TestReview_MarkedHelpfulBy(t *testing.T) {
	r := &Review{Helpful: []HelpfulMark{{User: "a"}}}
	assert.True(t, r.MarkedHelpfulBy("a"))
	assert.False(t, r.MarkedHelpfulBy("b"))
}

func TestUserRole_CanHost(t *testing.T) {
	assert.True(t, RoleHost.CanHost())
	assert.True(t, RoleAdmin.CanHost())
	assert.False(t, RoleGuest.CanHost())
}
