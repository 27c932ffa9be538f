package repository

import (
	"context"
	"testing"
	"time"

	"consultly/pkg/client"
	"consultly/pkg/config"
	"consultly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepository(t *testing.T) PartyRepository {
	t.Helper()
	db, err := client.OpenSQL(client.SQLOptions{Driver: config.StoreDriverSQLite, DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create([]*model.Party{
		{ID: "c2", Name: "Zoe Rao", Email: "zoe@example.com", Role: model.RoleConsultant, Specialty: "Tax"},
		{ID: "c1", Name: "Anil Mehta", Email: "anil@example.com", Role: model.RoleConsultant},
		{ID: "u1", Name: "Priya", Email: "priya@example.com", Role: model.RoleClient},
	}).Error)

	return NewGormPartyRepository(&config.Config{
		Client:      &client.Client{SQL: db},
		ReadTimeout: 5 * time.Second,
	})
}

func TestGormPartyRepository_FindByID(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	party, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Priya", party.Name)
	assert.Equal(t, model.RoleClient, party.Role)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormPartyRepository_ListByRole(t *testing.T) {
	repo := newSQLiteRepository(t)

	consultants, err := repo.ListByRole(context.Background(), model.RoleConsultant)
	require.NoError(t, err)
	require.Len(t, consultants, 2)
	assert.Equal(t, "Anil Mehta", consultants[0].Name)
	assert.Equal(t, "Tax", consultants[1].Specialty)
}

func TestGormPartyRepository_ListByRoleEmpty(t *testing.T) {
	repo := newSQLiteRepository(t)

	admins, err := repo.ListByRole(context.Background(), model.Role("ADMIN"))
	require.NoError(t, err)
	assert.NotNil(t, admins)
	assert.Empty(t, admins)
}
