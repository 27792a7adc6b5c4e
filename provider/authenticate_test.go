package provider_test

import (
	"context"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autherrors "github.com/levelcrush/commerce-auth/errors"
	"github.com/levelcrush/commerce-auth/provider"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestAuthenticate_LocalLogin_Success(t *testing.T) {
	env := newTestEnv(t, testOptions())
	seeded := env.seedIdentity(t, "111222333", "a@b.com", "correct")

	res := env.provider.Authenticate(context.Background(), provider.Input{
		Body: map[string]string{"email": "a@b.com", "password": "correct"},
	})

	require.True(t, res.Success)
	require.NotNil(t, res.Identity)
	assert.Equal(t, seeded.EntityID, res.Identity.EntityID)
	assert.Empty(t, res.Location)
}

func TestAuthenticate_LocalLogin_TrimsEmail(t *testing.T) {
	env := newTestEnv(t, testOptions())
	env.seedIdentity(t, "111222333", "a@b.com", "correct")

	res := env.provider.Authenticate(context.Background(), provider.Input{
		Body: map[string]string{"email": "  a@b.com  ", "password": "correct"},
	})
	assert.True(t, res.Success)
}

func TestAuthenticate_LocalLogin_GenericFailure(t *testing.T) {
	env := newTestEnv(t, testOptions())
	env.seedIdentity(t, "111222333", "a@b.com", "correct")

	wrongPassword := env.provider.Authenticate(context.Background(), provider.Input{
		Body: map[string]string{"email": "a@b.com", "password": "wrong"},
	})
	unknownEmail := env.provider.Authenticate(context.Background(), provider.Input{
		Body: map[string]string{"email": "unknown@b.com", "password": "correct"},
	})

	// Both failures must be byte-for-byte identical so responses cannot be
	// used to probe which emails exist.
	assert.False(t, wrongPassword.Success)
	assert.False(t, unknownEmail.Success)
	assert.Equal(t, autherrors.ReasonCredentialsMismatch, wrongPassword.Error)
	assert.Equal(t, wrongPassword.Error, unknownEmail.Error)
}

func TestAuthenticate_LocalLogin_SkipsIdentitiesWithoutHash(t *testing.T) {
	env := newTestEnv(t, testOptions())
	env.seedIdentity(t, "no-hash", "a@b.com", "")
	env.seedIdentity(t, "with-hash", "a@b.com", "correct")

	res := env.provider.Authenticate(context.Background(), provider.Input{
		Body: map[string]string{"email": "a@b.com", "password": "correct"},
	})
	require.True(t, res.Success)
	assert.Equal(t, "with-hash", res.Identity.EntityID)
}

func TestAuthenticate_Delegated_AdminSurface(t *testing.T) {
	env := newTestEnv(t, testOptions())

	res := env.provider.Authenticate(context.Background(), provider.Input{
		URL:   "https://backend.example.com/auth/user/levelcrush",
		Query: map[string]string{"redirect": "/orders"},
	})

	require.True(t, res.Success)
	require.NotEmpty(t, res.Location)

	loc, err := url.Parse(res.Location)
	require.NoError(t, err)
	assert.Equal(t, "/platform/discord/login", loc.Path)

	token := loc.Query().Get("token")
	assert.Regexp(t, hexToken, token, "token must carry 256 bits of entropy, hex encoded")
	assert.Equal(t, "/orders", loc.Query().Get("userRedirect"))

	// Admin logins call back into the backend app, not the storefront.
	redirectURL := loc.Query().Get("redirectUrl")
	assert.Contains(t, redirectURL, "https://backend.example.com/app/login?token=")

	state, err := env.states.GetState(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, state.Admin)
	assert.Equal(t, token, state.Token)
	assert.Equal(t, "/orders", state.UserRedirect)
}

func TestAuthenticate_Delegated_StorefrontSurface(t *testing.T) {
	env := newTestEnv(t, testOptions())

	res := env.provider.Authenticate(context.Background(), provider.Input{
		URL: "https://backend.example.com/auth/customer/levelcrush",
	})

	require.True(t, res.Success)
	loc, err := url.Parse(res.Location)
	require.NoError(t, err)

	token := loc.Query().Get("token")
	assert.Contains(t, loc.Query().Get("redirectUrl"), "https://store.example.com/callback?token=")

	state, err := env.states.GetState(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, state.Admin)
}

func TestAuthenticate_Delegated_TokensAreUnique(t *testing.T) {
	env := newTestEnv(t, testOptions())

	seen := make(map[string]bool)
	for range 16 {
		res := env.provider.Authenticate(context.Background(), provider.Input{
			URL: "https://backend.example.com/auth/customer/levelcrush",
		})
		require.True(t, res.Success)

		loc, err := url.Parse(res.Location)
		require.NoError(t, err)
		token := loc.Query().Get("token")
		assert.False(t, seen[token], "state tokens must never repeat")
		seen[token] = true
	}
}

func TestAuthenticate_EmptyPasswordGoesDelegated(t *testing.T) {
	env := newTestEnv(t, testOptions())

	// An email without a password is not a local login attempt.
	res := env.provider.Authenticate(context.Background(), provider.Input{
		URL:  "https://backend.example.com/auth/customer/levelcrush",
		Body: map[string]string{"email": "a@b.com"},
	})
	require.True(t, res.Success)
	assert.NotEmpty(t, res.Location)
	assert.Nil(t, res.Identity)
}
