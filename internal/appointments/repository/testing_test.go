package repository

import (
	"testing"
	"time"

	"consultly/pkg/client"
	"consultly/pkg/config"

	"github.com/stretchr/testify/require"
)

var (
	consultant = "consultant-1"
	slotStart  = time.Date(2026, 10, 19, 4, 30, 0, 0, time.UTC)
)

func newSQLiteConfig(t *testing.T) *config.Config {
	t.Helper()
	db, err := client.OpenSQL(client.SQLOptions{Driver: config.StoreDriverSQLite, DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	return &config.Config{
		Client:       &client.Client{SQL: db},
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
