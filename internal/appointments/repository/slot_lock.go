package repository

import (
	"context"
	"time"

	"consultly/pkg/model"
)

// SlotLockRepository holds short-lived exclusive claims on consultant slots.
type SlotLockRepository interface {
	// Acquire drops the client's other locks for the consultant, then claims the
	// slot if nobody holds it. A held slot returns false with a nil error.
	Acquire(ctx context.Context, consultantID string, slotStart time.Time, clientID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, consultantID string, slotStart time.Time) error
	// Peek returns nil when the slot is not locked.
	Peek(ctx context.Context, consultantID string, slotStart time.Time) (*model.SlotLock, error)
	Ping(ctx context.Context) error
}
