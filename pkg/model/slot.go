package model

import "time"

type SlotStatus string

const (
	SlotFree   SlotStatus = "FREE"
	SlotLocked SlotStatus = "LOCKED"
	SlotBooked SlotStatus = "BOOKED"
)

type Slot struct {
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Status     SlotStatus `json:"status"`
	LockedByMe *bool      `json:"lockedByMe,omitempty"`
	ExpiresIn  *int       `json:"expiresIn,omitempty"`
}
