package repository

import (
	"context"
	"errors"
	"time"

	"consultly/pkg/model"
)

const (
	UsersCollection = "Users"
)

var ErrNotFound = errors.New("party not found")

// PartyRepository reads the user directory owned by the identity service.
type PartyRepository interface {
	FindByID(ctx context.Context, id string) (*model.Party, error)
	ListByRole(ctx context.Context, role model.Role) ([]*model.Party, error)
	Ping(ctx context.Context) error
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
