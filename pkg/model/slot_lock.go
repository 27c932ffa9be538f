package model

import (
	"fmt"
	"time"
)

const (
	SlotLockPrefix = "slot-lock"

	// SlotLockTimeLayout renders the slot start the way lock keys are addressed.
	SlotLockTimeLayout = "2006-01-02T15:04:05.000Z"
)

// SlotLock is a short-lived, advisory reservation of one consultant slot by one client.
type SlotLock struct {
	Key       string    `json:"key" bson:"_id"`
	Holder    string    `json:"holder" bson:"holder"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// TTL returns the remaining lifetime relative to now, never negative.
func (l *SlotLock) TTL(now time.Time) time.Duration {
	if l.ExpiresAt.IsZero() {
		return 0
	}
	return max(l.ExpiresAt.Sub(now), 0)
}

func SlotLockKey(consultantID string, slotStart time.Time) string {
	return fmt.Sprintf("%s:%s:%s", SlotLockPrefix, consultantID, slotStart.UTC().Format(SlotLockTimeLayout))
}

func SlotLockConsultantPrefix(consultantID string) string {
	return fmt.Sprintf("%s:%s:", SlotLockPrefix, consultantID)
}
