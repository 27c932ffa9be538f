package model

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventAppointmentRequested EventType = "APPOINTMENT_REQUESTED"
	EventAppointmentAccepted  EventType = "APPOINTMENT_ACCEPTED"
	EventAppointmentRejected  EventType = "APPOINTMENT_REJECTED"
	EventAppointmentCancelled EventType = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted EventType = "APPOINTMENT_COMPLETED"
)

// AppointmentEvent is published after every lifecycle change and addressed to one party.
type AppointmentEvent struct {
	Type          EventType `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	ConsultantID  string    `json:"consultant_id"`
	ClientID      string    `json:"client_id"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Status        Status    `json:"status"`
	RecipientID   string    `json:"recipient_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewAppointmentEvent(eventType EventType, a *Appointment, recipientID string, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		Type:          eventType,
		AppointmentID: a.ID,
		ConsultantID:  a.ConsultantID,
		ClientID:      a.ClientID,
		StartAt:       a.StartAt.UTC(),
		EndAt:         a.EndAt.UTC(),
		Status:        a.Status,
		RecipientID:   recipientID,
		OccurredAt:    at.UTC(),
	}
}

// CounterpartID is the party the recipient is meeting.
func (e AppointmentEvent) CounterpartID() string {
	if e.RecipientID == e.ConsultantID {
		return e.ClientID
	}
	return e.ConsultantID
}

func (e AppointmentEvent) Validate() error {
	switch {
	case e.AppointmentID == "":
		return fmt.Errorf("event has no appointment_id")
	case e.RecipientID == "":
		return fmt.Errorf("event has no recipient_id")
	case e.RecipientID != e.ConsultantID && e.RecipientID != e.ClientID:
		return fmt.Errorf("recipient %s is not a party of appointment %s", e.RecipientID, e.AppointmentID)
	case e.StartAt.IsZero():
		return fmt.Errorf("event has no start_at")
	}
	switch e.Type {
	case EventAppointmentRequested, EventAppointmentAccepted, EventAppointmentRejected,
		EventAppointmentCancelled, EventAppointmentCompleted:
		return nil
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
}
