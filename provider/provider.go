// Package provider implements the LevelCrush authentication provider for
// the commerce platform: a Discord-backed delegated login flow with a
// local email/password fallback. The provider itself holds no mutable
// state; identities and pending login states live behind injected store
// interfaces, and every operation is a short request-scoped pipeline.
package provider

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/levelcrush/commerce-auth/config"
	"github.com/levelcrush/commerce-auth/domain"
	"github.com/levelcrush/commerce-auth/internal/levelcrush"
)

// adminPathMarker identifies logins originating from the privileged admin
// surface (as opposed to the storefront customer surface).
const adminPathMarker = "auth/user"

// PasswordHasher is the slow adaptive hash used for local passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}

// ClaimClient is the narrow slice of the auth server client the provider
// needs: building the outbound login redirect and trading a token for a
// profile claim.
type ClaimClient interface {
	LoginURL(token, redirectURL, userRedirect string) string
	Claim(ctx context.Context, token string) (*levelcrush.Claim, error)
}

// Input carries the request fields the provider reads. It mirrors the
// platform's authentication input: body credentials, query parameters,
// and the originating URL (used to detect the admin surface).
type Input struct {
	URL   string
	Body  map[string]string
	Query map[string]string
}

// Provider bridges the LevelCrush auth server into the commerce
// platform's pluggable identity-provider contract.
type Provider struct {
	opts       config.Options
	identities domain.IdentityStore
	states     domain.StateStore
	remote     ClaimClient
	hasher     PasswordHasher
	logger     zerolog.Logger

	stateTTL time.Duration
}

// New validates the options and assembles a Provider. A configuration
// error here is fatal: the caller must not register the provider.
func New(
	opts config.Options,
	identities domain.IdentityStore,
	states domain.StateStore,
	remote ClaimClient,
	hasher PasswordHasher,
	logger zerolog.Logger,
) (*Provider, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		opts:       opts,
		identities: identities,
		states:     states,
		remote:     remote,
		hasher:     hasher,
		logger:     logger.With().Str("provider", domain.ProviderName).Logger(),
		stateTTL:   domain.DefaultStateTTL,
	}, nil
}

// generateStateToken returns a 256-bit random token, hex encoded. The
// token is both the pending-state key and the CSRF correlation value, so
// it must be unguessable.
func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
