// Package cache provides the in-memory pending-state store, used in dev
// mode and in tests. Production deployments use the Redis store in
// cache/redis so pending logins survive process restarts.
package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/levelcrush/commerce-auth/domain"
)

// MemoryStateStore implements domain.StateStore using ttlcache.
type MemoryStateStore struct {
	cache *ttlcache.Cache[string, *domain.PendingAuthState]
}

// NewMemoryStateStore creates an in-memory state store with automatic
// expiry cleanup.
func NewMemoryStateStore() *MemoryStateStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *domain.PendingAuthState](domain.DefaultStateTTL),
		ttlcache.WithDisableTouchOnHit[string, *domain.PendingAuthState](),
	)

	// Start the cleanup process
	go cache.Start()

	return &MemoryStateStore{cache: cache}
}

// Stop terminates the cache's cleanup goroutine.
func (s *MemoryStateStore) Stop() {
	s.cache.Stop()
}

// SetState implements domain.StateStore.
func (s *MemoryStateStore) SetState(_ context.Context, key string, state *domain.PendingAuthState, ttl time.Duration) error {
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now().UTC()
	}
	s.cache.Set(key, state, ttl)
	return nil
}

// GetState implements domain.StateStore.
func (s *MemoryStateStore) GetState(_ context.Context, key string) (*domain.PendingAuthState, error) {
	item := s.cache.Get(key)
	if item == nil {
		return nil, domain.ErrStateNotFound
	}
	return item.Value(), nil
}

// ConsumeState implements domain.StateStore.
func (s *MemoryStateStore) ConsumeState(_ context.Context, key string) (*domain.PendingAuthState, error) {
	item, present := s.cache.GetAndDelete(key)
	if !present || item == nil {
		return nil, domain.ErrStateNotFound
	}
	return item.Value(), nil
}

var _ domain.StateStore = (*MemoryStateStore)(nil)
