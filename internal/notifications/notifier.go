package notifications

import (
	"context"
	"fmt"

	"consultly/pkg/kafka"
	"consultly/pkg/logger"
	"consultly/pkg/model"
)

const (
	eventSource   = "appointments"
	schemaVersion = "1"
)

// Notifier is told about every appointment lifecycle change.
type Notifier interface {
	Notify(ctx context.Context, event model.AppointmentEvent) error
}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaNotifier publishes events for the notifier service to deliver. It
// blocks on the broker, so the API runs it behind a Dispatcher.
type KafkaNotifier struct {
	publisher Publisher
}

func NewKafkaNotifier(publisher Publisher) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher}
}

func (n *KafkaNotifier) Deliver(ctx context.Context, event model.AppointmentEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.AppointmentID).
		WithValue(event).
		WithEventType(string(event.Type)).
		WithSource(eventSource).
		WithSchemaVersion(schemaVersion).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s message: %w", event.Type, err)
	}

	if err := n.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// LogNotifier only records events. Used when no delivery channel is configured.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event model.AppointmentEvent) error {
	n.log.Info("Appointment event",
		"event_type", event.Type,
		"appointment_id", event.AppointmentID,
		"recipient_id", event.RecipientID,
		"start_at", event.StartAt,
	)
	return nil
}
