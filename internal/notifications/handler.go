package notifications

import (
	"context"
	"errors"

	"consultly/pkg/kafka"
	"consultly/pkg/logger"
	"consultly/pkg/model"
)

// NewEventHandler consumes appointment events from Kafka. Events that can
// never be delivered go straight to the DLQ, anything else is retried.
func NewEventHandler(deliverer EventDeliverer, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.AppointmentEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("undecodable appointment event", err)
		}

		if err := deliverer.Deliver(ctx, event); err != nil {
			if errors.Is(err, ErrUndeliverable) {
				log.Warn("Dropping undeliverable appointment event",
					"event_id", msg.GetEventID(),
					"appointment_id", event.AppointmentID,
					"error", err,
				)
				return kafka.NewPermanentError("undeliverable appointment event", err)
			}
			return kafka.NewTransientError("appointment event delivery failed", err)
		}
		return nil
	}
}
