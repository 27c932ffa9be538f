package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"consultly/pkg/model"

	"github.com/patrickmn/go-cache"
)

// memorySlotLockRepository is process-local. It suits a single replica and tests.
type memorySlotLockRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemorySlotLockRepository(cleanupInterval time.Duration) SlotLockRepository {
	return &memorySlotLockRepository{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (r *memorySlotLockRepository) Acquire(_ context.Context, consultantID string, slotStart time.Time, clientID string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := model.SlotLockConsultantPrefix(consultantID)
	for key, item := range r.cache.Items() {
		if holder, ok := item.Object.(string); ok && holder == clientID && strings.HasPrefix(key, prefix) {
			r.cache.Delete(key)
		}
	}

	if err := r.cache.Add(model.SlotLockKey(consultantID, slotStart), clientID, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

func (r *memorySlotLockRepository) Release(_ context.Context, consultantID string, slotStart time.Time) error {
	r.cache.Delete(model.SlotLockKey(consultantID, slotStart))
	return nil
}

func (r *memorySlotLockRepository) Peek(_ context.Context, consultantID string, slotStart time.Time) (*model.SlotLock, error) {
	key := model.SlotLockKey(consultantID, slotStart)
	value, expiresAt, found := r.cache.GetWithExpiration(key)
	if !found {
		return nil, nil
	}
	holder, _ := value.(string)
	return &model.SlotLock{Key: key, Holder: holder, ExpiresAt: expiresAt}, nil
}

func (r *memorySlotLockRepository) Ping(context.Context) error {
	return nil
}
