package notifications

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"villagestay/pkg/kafka"
	"villagestay/pkg/logger"
	"villagestay/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() *model.BookingView {
	return &model.BookingView{
		ID:          "65f000000000000000000001",
		Listing:     &model.ListingSummary{ID: "65f000000000000000000002", Title: "Mud House Homestay"},
		Guest:       &model.UserSummary{ID: "65f000000000000000000003", Name: "Asha", Email: "asha@example.com"},
		Host:        &model.UserSummary{ID: "65f000000000000000000004", Name: "Ravi", Email: "ravi@example.com"},
		CheckIn:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
		GuestsCount: 2,
		TotalPrice:  7500,
		Status:      model.BookingPending,
	}
}

func TestForParties(t *testing.T) {
	events := ForParties(EventBookingCreated, sampleView(), "req-1")
	require.Len(t, events, 2)

	assert.Equal(t, RoleGuest, events[0].Recipient.Role)
	assert.Equal(t, "asha@example.com", events[0].Recipient.Email)
	assert.Equal(t, RoleHost, events[1].Recipient.Role)
	assert.Equal(t, "Mud House Homestay", events[1].Booking.ListingTitle)
	assert.Equal(t, "req-1", events[1].CorrelationID)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestForParties_SkipsMissingEmail(t *testing.T) {
	view := sampleView()
	view.Host = &model.UserSummary{ID: view.Host.ID}

	events := ForParties(EventBookingCancelled, view, "")
	require.Len(t, events, 1)
	assert.Equal(t, RoleGuest, events[0].Recipient.Role)
}

func TestEventShare(t *testing.T) {
	events := WithPayment(ForParties(EventPaymentCaptured, sampleView(), ""), "pi_1", model.SplitPayment(10000))
	require.Len(t, events, 2)

	assert.Equal(t, int64(10000), events[0].Share())
	assert.Equal(t, int64(8500), events[1].Share())
	assert.Equal(t, "pi_1", events[1].PaymentID)

	var none Event
	assert.Zero(t, none.Share())
}

func TestRender(t *testing.T) {
	t.Run("created guest", func(t *testing.T) {
		events := ForParties(EventBookingCreated, sampleView(), "")
		email, err := Render(events[0])
		require.NoError(t, err)

		assert.Equal(t, "asha@example.com", email.To)
		assert.Equal(t, "Booking request received: Mud House Homestay", email.Subject)
		assert.Contains(t, email.TextBody, "15 Mar 2024")
		assert.Contains(t, email.TextBody, "7500.00")
		assert.Equal(t, events[0].ID, email.CustomID)
	})

	t.Run("captured host", func(t *testing.T) {
		events := WithPayment(ForParties(EventPaymentCaptured, sampleView(), ""), "pi_1", model.SplitPayment(10000))
		email, err := Render(events[1])
		require.NoError(t, err)
		assert.Contains(t, email.TextBody, "Your share is 85.00 of 100.00")
	})

	t.Run("captured without payment", func(t *testing.T) {
		events := ForParties(EventPaymentCaptured, sampleView(), "")
		_, err := Render(events[0])
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Render(Event{Type: "booking.unknown", Recipient: Recipient{Role: RoleGuest}})
		assert.Error(t, err)
	})
}

type recordingSender struct {
	mu     sync.Mutex
	emails []*Email
	err    error
}

func (s *recordingSender) Send(_ context.Context, email *Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.emails = append(s.emails, email)
	return nil
}

func TestEmailDeliverer(t *testing.T) {
	sender := &recordingSender{}
	d := NewEmailDeliverer(sender)

	events := ForParties(EventBookingCancelled, sampleView(), "")
	require.NoError(t, d.Deliver(context.Background(), events[1]))
	require.Len(t, sender.emails, 1)
	assert.Equal(t, "ravi@example.com", sender.emails[0].To)

	err := d.Deliver(context.Background(), Event{Type: "nope"})
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
}

func TestDispatcher_RetriesUntilDelivered(t *testing.T) {
	var calls atomic.Int32
	delivered := make(chan Event, 1)
	d := NewDispatcher(DispatcherConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}, DelivererFunc(
		func(_ context.Context, e Event) error {
			if calls.Add(1) < 3 {
				return errors.New("smtp unavailable")
			}
			delivered <- e
			return nil
		}), nil)

	events := ForParties(EventBookingCreated, sampleView(), "")
	assert.Equal(t, 1, d.Submit(context.Background(), events[0]))

	select {
	case e := <-delivered:
		assert.Equal(t, events[0].ID, e.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	d := NewDispatcher(DispatcherConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond}, DelivererFunc(
		func(context.Context, Event) error {
			calls.Add(1)
			return errors.New("boom")
		}), nil)

	d.Submit(context.Background(), ForParties(EventBookingCreated, sampleView(), "")...)
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(4), calls.Load())
}

func TestDispatcher_PermanentErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	d := NewDispatcher(DispatcherConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond}, DelivererFunc(
		func(context.Context, Event) error {
			calls.Add(1)
			return kafka.NewPermanentError("mailjet rejected message", errors.New("invalid recipient"))
		}), nil)

	events := ForParties(EventBookingCreated, sampleView(), "")
	d.Submit(context.Background(), events...)
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(len(events)), calls.Load())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	d := NewDispatcher(DispatcherConfig{QueueSize: 1, Workers: 1}, DelivererFunc(
		func(context.Context, Event) error {
			<-release
			return nil
		}), nil)

	events := ForParties(EventBookingCreated, sampleView(), "")
	e := events[0]

	// First event is picked up by the worker, second fills the queue.
	require.Equal(t, 1, d.Submit(context.Background(), e))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	require.Equal(t, 1, d.Submit(context.Background(), e))
	assert.Equal(t, 0, d.Submit(context.Background(), e))

	close(release)
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 0, d.Submit(context.Background(), e))
}

func TestDispatcher_StopHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	d := NewDispatcher(DispatcherConfig{}, DelivererFunc(func(context.Context, Event) error {
		<-release
		return nil
	}), nil)
	d.Submit(context.Background(), ForParties(EventBookingCreated, sampleView(), "")[0])

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)
}

type fakePublisher struct {
	msgs []kafka.Message
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, msg kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestKafkaDeliverer_RoundTrip(t *testing.T) {
	pub := &fakePublisher{}
	d := NewKafkaDeliverer(pub, "marketplace")

	events := WithPayment(ForParties(EventPaymentCaptured, sampleView(), "req-9"), "pi_9", model.SplitPayment(10001))
	require.NoError(t, d.Deliver(context.Background(), events[1]))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, events[1].Booking.ID, msg.Key)
	assert.Equal(t, string(EventPaymentCaptured), msg.GetEventType())
	assert.Equal(t, "req-9", msg.GetCorrelationID())
	source, _ := msg.GetHeader(kafka.HeaderSource)
	assert.Equal(t, "marketplace", source)

	sender := &recordingSender{}
	handler := MessageHandler(NewEmailDeliverer(sender))
	require.NoError(t, handler(context.Background(), msg))
	require.Len(t, sender.emails, 1)
	assert.Contains(t, sender.emails[0].TextBody, "85.01 of 100.01")
}

func TestMessageHandler_Classification(t *testing.T) {
	ok := DelivererFunc(func(context.Context, Event) error { return nil })

	t.Run("invalid payload", func(t *testing.T) {
		err := MessageHandler(ok)(context.Background(), kafka.Message{Value: []byte("{")})
		assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
	})

	t.Run("missing email", func(t *testing.T) {
		msg, err := kafka.NewMessage().WithValue(Event{Type: EventBookingCreated}).Build()
		require.NoError(t, err)
		err = MessageHandler(ok)(context.Background(), msg)
		assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
	})

	t.Run("transient delivery failure", func(t *testing.T) {
		msg, err := kafka.NewMessage().WithValue(ForParties(EventBookingCreated, sampleView(), "")[0]).Build()
		require.NoError(t, err)
		failing := DelivererFunc(func(context.Context, Event) error {
			return errors.New("connection refused")
		})
		err = MessageHandler(failing)(context.Background(), msg)
		assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
	})
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(logger.Discard())
	assert.NoError(t, s.Send(context.Background(), &Email{To: "asha@example.com", Subject: "hi"}))
}
