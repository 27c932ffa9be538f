package client

import (
	"testing"
	"time"

	"consultly/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

func TestOpenSQL_SQLiteInMemory(t *testing.T) {
	db, err := OpenSQL(SQLOptions{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpenSQL_UnsupportedDriver(t *testing.T) {
	_, err := OpenSQL(SQLOptions{Driver: "oracle", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported SQL driver")
}

func TestSetRedis_AndShutdown(t *testing.T) {
	mr := miniredis.RunT(t)
	log := logger.Discard()

	c := NewClient()
	c.SetRedis(log, "redis://"+mr.Addr()+"/0", testTimeout)
	require.NotNil(t, c.Redis)

	c.GracefulShutdown(log, testTimeout)
}
