package notifications

import (
	"context"
	"errors"
	"fmt"

	"consultly/internal/appointments/calendar"
	partyrepo "consultly/internal/parties/repository"
	"consultly/pkg/logger"
	"consultly/pkg/model"
	"consultly/pkg/sanitizer"
)

// ErrUndeliverable marks events that can never be delivered, however often they are retried.
var ErrUndeliverable = errors.New("notification undeliverable")

// PartyDirectory resolves names and addresses of appointment parties.
type PartyDirectory interface {
	FindByID(ctx context.Context, id string) (*model.Party, error)
}

// EventDeliverer turns one appointment event into one outgoing message.
type EventDeliverer interface {
	Deliver(ctx context.Context, event model.AppointmentEvent) error
}

type EventMailer struct {
	directory PartyDirectory
	mailer    Mailer
	calendar  *calendar.Calendar
	log       *logger.Logger
}

func NewEventMailer(directory PartyDirectory, mailer Mailer, cal *calendar.Calendar, log *logger.Logger) *EventMailer {
	return &EventMailer{
		directory: directory,
		mailer:    mailer,
		calendar:  cal,
		log:       log,
	}
}

func (m *EventMailer) Deliver(ctx context.Context, event model.AppointmentEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}

	recipient, err := m.lookup(ctx, event.RecipientID)
	if err != nil {
		return err
	}
	counterpart, err := m.lookup(ctx, event.CounterpartID())
	if err != nil {
		return err
	}

	to := sanitizer.SanitizeEmail(recipient.Email)
	if to == "" {
		return fmt.Errorf("%w: party %s has no usable email address", ErrUndeliverable, recipient.ID)
	}

	email, err := RenderEmail(
		event.Type,
		sanitizer.SanitizeDisplayName(counterpart.Name),
		m.calendar.FormatDate(event.StartAt),
		m.calendar.FormatTime(event.StartAt),
	)
	if err != nil {
		return err
	}

	if err := m.mailer.Send(ctx, to, email.Subject, email.HTML); err != nil {
		return fmt.Errorf("failed to send %s email for appointment %s: %w", event.Type, event.AppointmentID, err)
	}

	m.log.Info("Notification email sent",
		"event_type", event.Type,
		"appointment_id", event.AppointmentID,
		"recipient_id", recipient.ID,
	)
	return nil
}

func (m *EventMailer) lookup(ctx context.Context, id string) (*model.Party, error) {
	party, err := m.directory.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, partyrepo.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrUndeliverable, err)
		}
		return nil, fmt.Errorf("failed to look up party %s: %w", id, err)
	}
	return party, nil
}
