package notifications

import (
	"context"
	"fmt"

	"villagestay/pkg/kafka"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaDeliverer writes events to the notifications topic for cmd/notifier.
type KafkaDeliverer struct {
	publisher Publisher
	source    string
}

func NewKafkaDeliverer(publisher Publisher, source string) *KafkaDeliverer {
	return &KafkaDeliverer{publisher: publisher, source: source}
}

func (d *KafkaDeliverer) Deliver(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Booking.ID).
		WithEventID(event.ID).
		WithEventType(string(event.Type)).
		WithCorrelationID(event.CorrelationID).
		WithSchemaVersion(SchemaVersion).
		WithSource(d.source).
		WithValue(event).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build notification message: %w", err)
	}
	return d.publisher.Publish(ctx, msg)
}

// MessageHandler decodes events from Kafka and hands them to next. Decoding
// failures are permanent; delivery failures keep the classification of the
// underlying error so the consumer retries only transient ones.
func MessageHandler(next Deliverer) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return err
		}
		if event.Recipient.Email == "" {
			return kafka.NewPermanentError("notification has no recipient email", nil)
		}

		if err := next.Deliver(ctx, event); err != nil {
			if kafka.ClassifyError(err) == kafka.ErrorTypeTransient {
				return kafka.NewTransientError("notification delivery failed", err)
			}
			return kafka.NewPermanentError("notification delivery failed", err)
		}
		return nil
	}
}
