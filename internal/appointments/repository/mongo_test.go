package repository

import (
	"context"
	"os"
	"testing"
	"time"

	appointmentserrors "consultly/internal/appointments/errors"
	migrations "consultly/internal/migrations/mongo"
	"consultly/pkg/client"
	"consultly/pkg/config"
	"consultly/pkg/logger"
	"consultly/pkg/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newMongoConfig connects to TEST_MONGO_URI and hands out a throwaway
// database. Skipped unless TEST_INTEGRATION is set.
func newMongoConfig(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("set TEST_INTEGRATION=1 to run against MongoDB")
	}
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, mc.Ping(ctx, nil))

	dbName := "consultly_test_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mc.Database(dbName).Drop(ctx)
		_ = mc.Disconnect(ctx)
	})

	return &config.Config{
		Client:            &client.Client{Mongo: mc},
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
	}
}

func TestMongoSlotLockRepository_Contract(t *testing.T) {
	lockStoreContract(t, NewMongoSlotLockRepository(newMongoConfig(t)))
}

func TestMongoSlotLockRepository_ExpiredDocumentNotYetSwept(t *testing.T) {
	cfg := newMongoConfig(t)
	repo := NewMongoSlotLockRepository(cfg).(*mongoSlotLockRepository)
	ctx := context.Background()

	now := time.Date(2030, 1, 7, 5, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	ok, err := repo.Acquire(ctx, consultant, slotStart, "client-a", lockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(lockTTL + time.Second)

	lock, err := repo.Peek(ctx, consultant, slotStart)
	require.NoError(t, err)
	assert.Nil(t, lock, "an expired document must read as free")

	left, err := repo.collection.CountDocuments(ctx, bson.M{"_id": model.SlotLockKey(consultant, slotStart)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, left, "the document is still on disk until the TTL monitor runs")

	ok, err = repo.Acquire(ctx, consultant, slotStart, "client-b", lockTTL)
	require.NoError(t, err)
	assert.True(t, ok, "an expired document must not block a new holder")

	lock, err = repo.Peek(ctx, consultant, slotStart)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, "client-b", lock.Holder)
	assert.Equal(t, lockTTL, lock.TTL(now))
}

func TestMongoSlotLockRepository_EvictionStaysWithinConsultant(t *testing.T) {
	cfg := newMongoConfig(t)
	repo := NewMongoSlotLockRepository(cfg)
	ctx := context.Background()

	// "consultant-1" is a prefix of "consultant-10"; the key separator keeps them apart.
	ok, err := repo.Acquire(ctx, consultant+"0", slotStart, "client-a", lockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Acquire(ctx, consultant, slotStart, "client-a", lockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	kept, err := repo.Peek(ctx, consultant+"0", slotStart)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestMongoAppointmentRepository_OneActiveAppointmentPerSlot(t *testing.T) {
	cfg := newMongoConfig(t)
	ctx := context.Background()
	require.NoError(t, migrations.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, logger.Discard()))
	repo := NewMongoAppointmentRepository(cfg)

	first := newAppointment(consultant, "client-1", slotStart, model.StatusPending)
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, newAppointment(consultant, "client-2", slotStart, model.StatusScheduled))
	assert.ErrorIs(t, err, appointmentserrors.ErrSlotTaken)

	require.NoError(t, repo.Create(ctx, newAppointment(consultant, "client-3", slotStart, model.StatusRejected)),
		"inactive appointments do not hold the slot")

	_, err = repo.UpdateStatus(ctx, first.ID, model.ActiveStatuses, model.StatusCancelled)
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, newAppointment(consultant, "client-2", slotStart, model.StatusPending)),
		"a cancelled slot can be booked again")
}
