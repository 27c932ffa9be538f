package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"consultly/internal/appointments/calendar"
	partyrepo "consultly/internal/parties/repository"
	"consultly/pkg/logger"
	"consultly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDirectory struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Party, error)
}

func (m *mockDirectory) FindByID(ctx context.Context, id string) (*model.Party, error) {
	return m.findByIDFunc(ctx, id)
}

type sentMail struct {
	to, subject, html string
}

type mockMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (m *mockMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, html: html})
	return nil
}

func (m *mockMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

var (
	slotStart = time.Date(2026, 10, 19, 4, 30, 0, 0, time.UTC)

	directory = &mockDirectory{
		findByIDFunc: func(_ context.Context, id string) (*model.Party, error) {
			switch id {
			case "c1":
				return &model.Party{ID: "c1", Name: "Anil Mehta", Email: "anil@example.com", Role: model.RoleConsultant}, nil
			case "u1":
				return &model.Party{ID: "u1", Name: "Priya", Email: "priya@example.com", Role: model.RoleClient}, nil
			}
			return nil, fmt.Errorf("%w: %s", partyrepo.ErrNotFound, id)
		},
	}
)

func newEvent(eventType model.EventType, recipient string) model.AppointmentEvent {
	a := &model.Appointment{
		ID:           "a1",
		ConsultantID: "c1",
		ClientID:     "u1",
		StartAt:      slotStart,
		EndAt:        slotStart.Add(time.Hour),
		Status:       model.StatusPending,
	}
	return model.NewAppointmentEvent(eventType, a, recipient, slotStart.Add(-24*time.Hour))
}

func TestEventMailer_RequestedGoesToConsultant(t *testing.T) {
	mailer := &mockMailer{}
	m := NewEventMailer(directory, mailer, calendar.Default(), logger.Discard())

	require.NoError(t, m.Deliver(context.Background(), newEvent(model.EventAppointmentRequested, "c1")))

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "anil@example.com", sent[0].to)
	assert.Equal(t, "New Appointment Request", sent[0].subject)
	assert.Contains(t, sent[0].html, "<strong>Client:</strong> Priya")
	assert.Contains(t, sent[0].html, "19/10/2026")
	assert.Contains(t, sent[0].html, "10:00 am")
}

func TestEventMailer_StatusChangeNamesCounterpart(t *testing.T) {
	mailer := &mockMailer{}
	m := NewEventMailer(directory, mailer, calendar.Default(), logger.Discard())

	require.NoError(t, m.Deliver(context.Background(), newEvent(model.EventAppointmentAccepted, "u1")))

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "priya@example.com", sent[0].to)
	assert.Equal(t, "Appointment ACCEPTED", sent[0].subject)
	assert.Contains(t, sent[0].html, "<strong>Anil Mehta</strong>")
}

func TestEventMailer_Undeliverable(t *testing.T) {
	tests := []struct {
		name  string
		event model.AppointmentEvent
		dir   PartyDirectory
	}{
		{
			name:  "invalid event",
			event: newEvent(model.EventAppointmentAccepted, "stranger"),
			dir:   directory,
		},
		{
			name:  "unknown counterpart",
			event: func() model.AppointmentEvent { e := newEvent(model.EventAppointmentAccepted, "u1"); e.ConsultantID = "gone"; return e }(),
			dir:   directory,
		},
		{
			name:  "recipient without email",
			event: newEvent(model.EventAppointmentRequested, "c1"),
			dir: &mockDirectory{findByIDFunc: func(_ context.Context, id string) (*model.Party, error) {
				return &model.Party{ID: id, Name: "No Mail"}, nil
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &mockMailer{}
			m := NewEventMailer(tt.dir, mailer, calendar.Default(), logger.Discard())

			err := m.Deliver(context.Background(), tt.event)
			assert.ErrorIs(t, err, ErrUndeliverable)
			assert.Empty(t, mailer.Sent())
		})
	}
}

func TestEventMailer_RetryableFailures(t *testing.T) {
	down := errors.New("connection refused")

	t.Run("directory unavailable", func(t *testing.T) {
		dir := &mockDirectory{findByIDFunc: func(context.Context, string) (*model.Party, error) { return nil, down }}
		m := NewEventMailer(dir, &mockMailer{}, calendar.Default(), logger.Discard())

		err := m.Deliver(context.Background(), newEvent(model.EventAppointmentRequested, "c1"))
		assert.ErrorIs(t, err, down)
		assert.NotErrorIs(t, err, ErrUndeliverable)
	})

	t.Run("mail server down", func(t *testing.T) {
		m := NewEventMailer(directory, &mockMailer{sendErr: down}, calendar.Default(), logger.Discard())

		err := m.Deliver(context.Background(), newEvent(model.EventAppointmentRequested, "c1"))
		assert.ErrorIs(t, err, down)
		assert.NotErrorIs(t, err, ErrUndeliverable)
	})
}
