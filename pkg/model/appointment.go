package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusScheduled Status = "SCHEDULED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

var (
	// ActiveStatuses block a consultant's time range.
	ActiveStatuses = []Status{StatusPending, StatusScheduled}

	HistoryStatuses = []Status{StatusCompleted, StatusCancelled, StatusRejected}
)

// ParseStatus maps external spellings onto the canonical status set.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return StatusPending, true
	case "SCHEDULED", "CONFIRMED", "ACCEPTED":
		return StatusScheduled, true
	case "REJECTED":
		return StatusRejected, true
	case "CANCELLED", "CANCELED":
		return StatusCancelled, true
	case "COMPLETED":
		return StatusCompleted, true
	default:
		return "", false
	}
}

func (s Status) In(set []Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID           string    `json:"id" bson:"_id,omitempty" gorm:"primaryKey;type:varchar(36)"`
	ConsultantID string    `json:"consultant_id" bson:"consultant_id" gorm:"type:varchar(64);not null;index:idx_appointments_consultant_start,priority:1"`
	ClientID     string    `json:"client_id" bson:"client_id" gorm:"type:varchar(64);not null;index:idx_appointments_client_start,priority:1"`
	StartAt      time.Time `json:"start_at" bson:"start_at" gorm:"not null;index:idx_appointments_consultant_start,priority:2;index:idx_appointments_client_start,priority:2"`
	EndAt        time.Time `json:"end_at" bson:"end_at" gorm:"not null"`
	Purpose      string    `json:"purpose,omitempty" bson:"purpose,omitempty" gorm:"type:varchar(500)"`
	Status       Status    `json:"status" bson:"status" gorm:"type:varchar(16);not null;index"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// Overlaps reports whether the appointment intersects the half-open range [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartAt.Before(end) && a.EndAt.After(start)
}

type CreateAppointmentRequest struct {
	ConsultantID string `json:"consultantId" validate:"required,party_id"`
	StartAt      string `json:"startAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt        string `json:"endAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Purpose      string `json:"purpose,omitempty" validate:"omitempty,max=500"`
}

type LockSlotRequest struct {
	ConsultantID string `json:"consultantId" validate:"required,party_id"`
	StartAt      string `json:"startAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

type LockSlotResponse struct {
	ExpiresIn int `json:"expiresIn"`
}
