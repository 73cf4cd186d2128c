package notifications

import (
	"context"
	"sync"
	"time"

	"villagestay/pkg/kafka"
	"villagestay/pkg/logger"
)

// Deliverer hands one event to its transport.
type Deliverer interface {
	Deliver(ctx context.Context, event Event) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, event Event) error

func (f DelivererFunc) Deliver(ctx context.Context, event Event) error {
	return f(ctx, event)
}

type DispatcherConfig struct {
	QueueSize      int
	Workers        int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	DeliverTimeout time.Duration
}

func (c *DispatcherConfig) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.DeliverTimeout <= 0 {
		c.DeliverTimeout = 10 * time.Second
	}
}

// Dispatcher is a bounded in-process outbox. Submit never blocks; a full
// queue drops the event with a warning. Workers retry failed deliveries with
// exponential backoff and give up after MaxAttempts.
type Dispatcher struct {
	cfg       DispatcherConfig
	deliverer Deliverer
	log       *logger.Logger

	queue   chan Event
	mu      sync.RWMutex
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDispatcher(cfg DispatcherConfig, deliverer Deliverer, log *logger.Logger) *Dispatcher {
	cfg.applyDefaults()
	if log == nil {
		log = logger.Discard()
	}

	d := &Dispatcher{
		cfg:       cfg,
		deliverer: deliverer,
		log:       log,
		queue:     make(chan Event, cfg.QueueSize),
		stopCh:    make(chan struct{}),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}
	return d
}

// Submit enqueues events. It reports how many were accepted.
func (d *Dispatcher) Submit(_ context.Context, events ...Event) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		for _, e := range events {
			d.log.Warn("Notification dropped, dispatcher stopped", "event_type", e.Type, "booking_id", e.Booking.ID)
		}
		return 0
	}

	accepted := 0
	for _, e := range events {
		select {
		case d.queue <- e:
			accepted++
		default:
			d.log.Warn("Notification dropped, queue full",
				"event_type", e.Type,
				"booking_id", e.Booking.ID,
				"recipient_role", e.Recipient.Role,
				"queue_size", d.cfg.QueueSize,
			)
		}
	}
	return accepted
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event Event) {
	backoff := d.cfg.InitialBackoff
	log := d.log.With(
		"event_id", event.ID,
		"event_type", event.Type,
		"booking_id", event.Booking.ID,
		"recipient_role", event.Recipient.Role,
		"correlation_id", event.CorrelationID,
	)

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DeliverTimeout)
		err := d.deliverer.Deliver(ctx, event)
		cancel()
		if err == nil {
			log.Debug("Notification delivered", "attempt", attempt)
			return
		}

		if kafka.IsPermanent(err) {
			log.Error("Notification rejected, not retrying", "attempt", attempt, "error", err)
			return
		}
		if attempt == d.cfg.MaxAttempts {
			log.Error("Notification delivery failed, giving up", "attempts", attempt, "error", err)
			return
		}
		log.Warn("Notification delivery failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)

		select {
		case <-time.After(backoff):
		case <-d.stopCh:
			// Shutting down: one last immediate attempt is all we allow.
			attempt = d.cfg.MaxAttempts - 1
		}
		backoff = min(backoff*2, d.cfg.MaxBackoff)
	}
}

// Stop rejects new events, drains the queue and waits for workers until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.once.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		close(d.stopCh)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
