package repository

import (
	"context"
	"testing"
	"time"

	"consultly/pkg/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lockTTL = 300 * time.Second

// lockStoreContract runs the behaviour every lock store must share.
func lockStoreContract(t *testing.T, repo SlotLockRepository) {
	ctx := context.Background()
	second := slotStart.Add(time.Hour)

	t.Run("acquire free slot", func(t *testing.T) {
		ok, err := repo.Acquire(ctx, consultant, slotStart, "client-a", lockTTL)
		require.NoError(t, err)
		assert.True(t, ok)

		lock, err := repo.Peek(ctx, consultant, slotStart)
		require.NoError(t, err)
		require.NotNil(t, lock)
		assert.Equal(t, "client-a", lock.Holder)
		assert.Equal(t, model.SlotLockKey(consultant, slotStart), lock.Key)
	})

	t.Run("other client conflicts", func(t *testing.T) {
		ok, err := repo.Acquire(ctx, consultant, slotStart, "client-b", lockTTL)
		require.NoError(t, err)
		assert.False(t, ok)

		lock, err := repo.Peek(ctx, consultant, slotStart)
		require.NoError(t, err)
		assert.Equal(t, "client-a", lock.Holder, "conflicting acquire must not steal the lock")
	})

	t.Run("same client relocks its own slot", func(t *testing.T) {
		ok, err := repo.Acquire(ctx, consultant, slotStart, "client-a", lockTTL)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("new lock evicts the client's previous lock", func(t *testing.T) {
		ok, err := repo.Acquire(ctx, consultant, second, "client-a", lockTTL)
		require.NoError(t, err)
		assert.True(t, ok)

		old, err := repo.Peek(ctx, consultant, slotStart)
		require.NoError(t, err)
		assert.Nil(t, old)
	})

	t.Run("eviction leaves other clients and consultants alone", func(t *testing.T) {
		ok, err := repo.Acquire(ctx, consultant, slotStart, "client-b", lockTTL)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = repo.Acquire(ctx, "consultant-2", slotStart, "client-a", lockTTL)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.Acquire(ctx, consultant, slotStart.Add(2*time.Hour), "client-a", lockTTL)
		require.NoError(t, err)
		require.True(t, ok)

		lockB, err := repo.Peek(ctx, consultant, slotStart)
		require.NoError(t, err)
		require.NotNil(t, lockB)
		assert.Equal(t, "client-b", lockB.Holder)

		other, err := repo.Peek(ctx, "consultant-2", slotStart)
		require.NoError(t, err)
		assert.NotNil(t, other)

		gone, err := repo.Peek(ctx, consultant, second)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("release", func(t *testing.T) {
		require.NoError(t, repo.Release(ctx, consultant, slotStart))
		lock, err := repo.Peek(ctx, consultant, slotStart)
		require.NoError(t, err)
		assert.Nil(t, lock)

		require.NoError(t, repo.Release(ctx, consultant, slotStart), "releasing an absent lock is a no-op")
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}

func newRedisRepo(t *testing.T) (*miniredis.Miniredis, *redisSlotLockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisSlotLockRepository(rdb).(*redisSlotLockRepository)
}

func TestRedisSlotLockRepository_Contract(t *testing.T) {
	_, repo := newRedisRepo(t)
	lockStoreContract(t, repo)
}

func TestRedisSlotLockRepository_Expiry(t *testing.T) {
	mr, repo := newRedisRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	ok, err := repo.Acquire(ctx, consultant, slotStart, "client-a", lockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(100 * time.Second)
	lock, err := repo.Peek(ctx, consultant, slotStart)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, 200*time.Second, lock.TTL(now))

	ok, err = repo.Acquire(ctx, consultant, slotStart, "client-b", lockTTL)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(201 * time.Second)
	ok, err = repo.Acquire(ctx, consultant, slotStart, "client-b", lockTTL)
	require.NoError(t, err)
	assert.True(t, ok, "lock should be free after the TTL lapses")
}

func TestRedisSlotLockRepository_StoreDown(t *testing.T) {
	mr, repo := newRedisRepo(t)
	mr.Close()

	_, err := repo.Acquire(context.Background(), consultant, slotStart, "client-a", lockTTL)
	assert.Error(t, err)
	_, err = repo.Peek(context.Background(), consultant, slotStart)
	assert.Error(t, err)
	assert.Error(t, repo.Ping(context.Background()))
}

func TestMemorySlotLockRepository_Contract(t *testing.T) {
	lockStoreContract(t, NewMemorySlotLockRepository(time.Minute))
}

func TestMemorySlotLockRepository_Expiry(t *testing.T) {
	repo := NewMemorySlotLockRepository(time.Minute)
	ctx := context.Background()

	ok, err := repo.Acquire(ctx, consultant, slotStart, "client-a", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	lock, err := repo.Peek(ctx, consultant, slotStart)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Positive(t, lock.TTL(time.Now()))

	time.Sleep(80 * time.Millisecond)

	lock, err = repo.Peek(ctx, consultant, slotStart)
	require.NoError(t, err)
	assert.Nil(t, lock)

	ok, err = repo.Acquire(ctx, consultant, slotStart, "client-b", lockTTL)
	require.NoError(t, err)
	assert.True(t, ok)
}
