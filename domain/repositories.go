package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdentityNotFound is returned by IdentityStore lookups and updates
	// when no identity matches. Callers branch on it with errors.Is to
	// decide create-vs-update; it is an expected control path, not a fault.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrStateNotFound is returned when a pending auth state is absent:
	// expired, never created, or already consumed.
	ErrStateNotFound = errors.New("pending auth state not found")
)

// IdentityStore persists provider identities. Implementations own
// read-modify-write atomicity; concurrent upserts for the same entity id
// must not corrupt the record.
type IdentityStore interface {
	// Update applies metadata to the identity keyed by entityID and returns
	// the updated record, or ErrIdentityNotFound when no such identity
	// exists under this provider.
	Update(ctx context.Context, entityID string, meta IdentityMetadata) (*Identity, error)

	// Create inserts a new identity and returns the stored record.
	Create(ctx context.Context, identity *Identity) (*Identity, error)

	// Retrieve loads the canonical record for an entity id, or
	// ErrIdentityNotFound.
	Retrieve(ctx context.Context, entityID string) (*Identity, error)

	// QueryByEmail lists identities under this provider whose provider
	// metadata email matches exactly, most recent first. Duplicates are
	// possible; the caller decides which one wins.
	QueryByEmail(ctx context.Context, email string) ([]*Identity, error)
}

// StateStore keeps pending auth states under opaque tokens with a TTL.
type StateStore interface {
	// SetState stores a pending state under key for at most ttl.
	SetState(ctx context.Context, key string, state *PendingAuthState, ttl time.Duration) error

	// GetState returns the state for key without invalidating it, or
	// ErrStateNotFound.
	GetState(ctx context.Context, key string) (*PendingAuthState, error)

	// ConsumeState returns the state for key and invalidates it in the same
	// step, or ErrStateNotFound. A second consume of the same key fails.
	ConsumeState(ctx context.Context, key string) (*PendingAuthState, error)
}
