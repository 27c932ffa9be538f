package testutil

import (
	"time"

	"consultly/internal/appointments/calendar"
	"consultly/pkg/model"
)

var (
	ClientParty = model.Party{ID: "it-client-1", Name: "Riya Shah", Email: "riya@example.com", Role: model.RoleClient}
	RivalParty  = model.Party{ID: "it-client-2", Name: "Kabir Das", Email: "kabir@example.com", Role: model.RoleClient}

	ConsultantParty = model.Party{ID: "it-consultant-1", Name: "Anika Rao", Email: "anika@example.com", Role: model.RoleConsultant, Specialty: "Tax"}
)

func IdentityOf(p model.Party) model.Identity {
	return model.Identity{ID: p.ID, Role: p.Role}
}

// NextOpenSlot returns the slot starting at hour on the first open business
// day at least two days out.
func NextOpenSlot(hour int) (calendar.Date, time.Time, time.Time) {
	cal := calendar.Default()
	day := cal.Today(time.Now()).AddDays(2)
	for !cal.BusinessDayIsOpen(day) {
		day = day.AddDays(1)
	}
	start, end := cal.SlotBounds(day, hour)
	return day, start, end
}

func LockRequest(consultantID string, start time.Time) model.LockSlotRequest {
	return model.LockSlotRequest{
		ConsultantID: consultantID,
		StartAt:      start.UTC().Format(time.RFC3339),
	}
}

func CreateRequest(consultantID string, start, end time.Time, purpose string) model.CreateAppointmentRequest {
	return model.CreateAppointmentRequest{
		ConsultantID: consultantID,
		StartAt:      start.UTC().Format(time.RFC3339),
		EndAt:        end.UTC().Format(time.RFC3339),
		Purpose:      purpose,
	}
}
