package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consultly/pkg/model"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

// releaseIfHolder deletes KEYS[1] only while it still belongs to ARGV[1].
var releaseIfHolder = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisSlotLockRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisSlotLockRepository(client *redis.Client) SlotLockRepository {
	return &redisSlotLockRepository{client: client, now: time.Now}
}

func (r *redisSlotLockRepository) Acquire(ctx context.Context, consultantID string, slotStart time.Time, clientID string, ttl time.Duration) (bool, error) {
	if err := r.evict(ctx, consultantID, clientID); err != nil {
		return false, err
	}

	key := model.SlotLockKey(consultantID, slotStart)
	ok, err := r.client.SetNX(ctx, key, clientID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire slot lock %s: %w", key, err)
	}
	return ok, nil
}

// evict removes every lock the client holds on the consultant's slots.
func (r *redisSlotLockRepository) evict(ctx context.Context, consultantID, clientID string) error {
	pattern := model.SlotLockConsultantPrefix(consultantID) + "*"
	iter := r.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := releaseIfHolder.Run(ctx, r.client, []string{key}, clientID).Err(); err != nil {
			return fmt.Errorf("failed to evict slot lock %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan slot locks: %w", err)
	}
	return nil
}

func (r *redisSlotLockRepository) Release(ctx context.Context, consultantID string, slotStart time.Time) error {
	key := model.SlotLockKey(consultantID, slotStart)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release slot lock %s: %w", key, err)
	}
	return nil
}

func (r *redisSlotLockRepository) Peek(ctx context.Context, consultantID string, slotStart time.Time) (*model.SlotLock, error) {
	key := model.SlotLockKey(consultantID, slotStart)

	var get *redis.StringCmd
	var pttl *redis.DurationCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read slot lock %s: %w", key, err)
	}

	holder, err := get.Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot lock %s: %w", key, err)
	}

	lock := &model.SlotLock{Key: key, Holder: holder}
	// PTTL reports negative values for keys without expiry or already gone.
	if remaining := pttl.Val(); remaining > 0 {
		lock.ExpiresAt = r.now().Add(remaining)
	}
	return lock, nil
}

func (r *redisSlotLockRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
