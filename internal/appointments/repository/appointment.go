package repository

import (
	"context"
	"time"

	"consultly/pkg/model"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	// UpdateStatus moves the appointment to `to` only while its status is one of `from`.
	UpdateStatus(ctx context.Context, id string, from []model.Status, to model.Status) (*model.Appointment, error)
	FindOverlap(ctx context.Context, consultantID string, start, end time.Time, statuses []model.Status) ([]*model.Appointment, error)
	ListByParty(ctx context.Context, partyID string, role model.Role, statuses []model.Status) ([]*model.Appointment, error)
	ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
}

// partyField is the document/column holding the party id for role.
func partyField(role model.Role) string {
	if role == model.RoleConsultant {
		return "consultant_id"
	}
	return "client_id"
}

func statusStrings(statuses []model.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// withTimeout bounds ctx by timeout unless it already has an earlier deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}
