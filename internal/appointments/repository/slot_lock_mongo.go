package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"consultly/pkg/config"
	"consultly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SlotLocksCollection = "Slot_locks"
)

// mongoSlotLockRepository keeps locks as documents keyed by the lock key. The
// TTL index on expires_at only sweeps about once a minute, so reads filter on
// expires_at as well.
type mongoSlotLockRepository struct {
	cfg        *config.Config
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		cfg:        cfg,
		client:     cfg.Client.Mongo,
		collection: db.Collection(SlotLocksCollection),
		now:        time.Now,
	}
}

func (r *mongoSlotLockRepository) Acquire(ctx context.Context, consultantID string, slotStart time.Time, clientID string, ttl time.Duration) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := r.now().UTC()
	prefix := model.SlotLockConsultantPrefix(consultantID)
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"_id":    bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)},
		"holder": clientID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evict slot locks: %w", err)
	}

	key := model.SlotLockKey(consultantID, slotStart)
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lte": now}})
	if err != nil {
		return false, fmt.Errorf("failed to clear expired slot lock %s: %w", key, err)
	}

	lock := &model.SlotLock{
		Key:       key,
		Holder:    clientID,
		ExpiresAt: now.Add(ttl).Truncate(time.Millisecond),
		CreatedAt: now.Truncate(time.Millisecond),
	}
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire slot lock %s: %w", key, err)
	}
	return true, nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, consultantID string, slotStart time.Time) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	key := model.SlotLockKey(consultantID, slotStart)
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to release slot lock %s: %w", key, err)
	}
	return nil
}

func (r *mongoSlotLockRepository) Peek(ctx context.Context, consultantID string, slotStart time.Time) (*model.SlotLock, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	key := model.SlotLockKey(consultantID, slotStart)
	filter := bson.M{"_id": key, "expires_at": bson.M{"$gt": r.now().UTC()}}

	var lock model.SlotLock
	if err := r.collection.FindOne(ctx, filter).Decode(&lock); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read slot lock %s: %w", key, err)
	}
	return &lock, nil
}

func (r *mongoSlotLockRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()
	return r.client.Ping(ctx, nil)
}
