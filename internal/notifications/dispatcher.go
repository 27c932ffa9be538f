package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"consultly/pkg/logger"
	"consultly/pkg/model"
)

var (
	ErrQueueFull         = errors.New("notification queue is full")
	ErrDispatcherStopped = errors.New("notification dispatcher is stopped")
)

// Dispatcher delivers events on a fixed pool of workers, off the request
// goroutine. Each delivery gets its own timeout.
type Dispatcher struct {
	size      int
	jobs      chan model.AppointmentEvent
	deliverer EventDeliverer
	timeout   time.Duration
	log       *logger.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

func NewDispatcher(size, queueSize int, deliverer EventDeliverer, timeout time.Duration, log *logger.Logger) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	if queueSize < size {
		queueSize = size
	}
	return &Dispatcher{
		size:      size,
		jobs:      make(chan model.AppointmentEvent, queueSize),
		deliverer: deliverer,
		timeout:   timeout,
		log:       log,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.size; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.log.Debug("Notification worker started", "worker", id)

	for event := range d.jobs {
		d.deliver(ctx, event)
	}

	d.log.Debug("Notification worker stopped", "worker", id)
}

func (d *Dispatcher) deliver(ctx context.Context, event model.AppointmentEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := d.deliverer.Deliver(ctx, event); err != nil {
		d.log.Error("Failed to deliver notification",
			"event_type", event.Type,
			"appointment_id", event.AppointmentID,
			"recipient_id", event.RecipientID,
			"error", err,
		)
	}
}

// Notify enqueues event without blocking.
func (d *Dispatcher) Notify(_ context.Context, event model.AppointmentEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.jobs <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new events, drains the queue and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobs)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
