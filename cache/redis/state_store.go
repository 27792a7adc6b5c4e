package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/levelcrush/commerce-auth/domain"
)

// StateStore implements domain.StateStore backed by Redis. Values are
// JSON blobs under TTL'd keys; consume uses GETDEL so read+invalidate is
// a single atomic command even across concurrent callbacks.
type StateStore struct {
	client *redis.Client
	prefix string // Optional prefix for keys
}

// NewStateStore creates a new [StateStore] instance.
func NewStateStore(client *redis.Client, prefix string) *StateStore {
	return &StateStore{
		client: client,
		prefix: prefix,
	}
}

// redisKey returns the Redis key for a given state token.
func (r *StateStore) redisKey(token string) string {
	return fmt.Sprintf("%s:auth_state:%s", r.prefix, token)
}

// SetState implements domain.StateStore.
func (r *StateStore) SetState(ctx context.Context, key string, state *domain.PendingAuthState, ttl time.Duration) error {
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal pending auth state: %w", err)
	}

	if err := r.client.Set(ctx, r.redisKey(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set pending auth state in Redis: %w", err)
	}
	return nil
}

// GetState implements domain.StateStore.
func (r *StateStore) GetState(ctx context.Context, key string) (*domain.PendingAuthState, error) {
	payload, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to get pending auth state from Redis: %w", err)
	}
	return decodeState(payload)
}

// ConsumeState implements domain.StateStore.
func (r *StateStore) ConsumeState(ctx context.Context, key string) (*domain.PendingAuthState, error) {
	payload, err := r.client.GetDel(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to consume pending auth state from Redis: %w", err)
	}
	return decodeState(payload)
}

func decodeState(payload []byte) (*domain.PendingAuthState, error) {
	var state domain.PendingAuthState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending auth state: %w", err)
	}
	return &state, nil
}

var _ domain.StateStore = (*StateStore)(nil)
