package levelcrush_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelcrush/commerce-auth/internal/levelcrush"
)

func TestClient_LoginURL(t *testing.T) {
	c := levelcrush.NewClient("https://auth.example.com/", "secret")

	raw := c.LoginURL("abc123", "https://store.example.com/callback?token=abc123", "/account")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com", u.Scheme+"://"+u.Host)
	assert.Equal(t, "/platform/discord/login", u.Path)

	q := u.Query()
	assert.Equal(t, "abc123", q.Get("token"))
	assert.Equal(t, "https://store.example.com/callback?token=abc123", q.Get("redirectUrl"))
	assert.Equal(t, "/account", q.Get("userRedirect"))
}

func TestClient_Claim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/platform/discord/claim", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "shared-secret", r.Header.Get("X-API-KEY"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok-1", body["token"])

		json.NewEncoder(w).Encode(levelcrush.Claim{
			DiscordHandle: "primal",
			DiscordID:     "123456789",
			InServer:      true,
			Email:         "primal@example.com",
			Nicknames:     []string{"Primal"},
			GlobalName:    "Primal",
		})
	}))
	defer srv.Close()

	c := levelcrush.NewClient(srv.URL, "shared-secret")
	claim, err := c.Claim(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "123456789", claim.DiscordID)
	assert.Equal(t, "primal@example.com", claim.Email)
	assert.True(t, claim.InServer)
}

func TestClient_Claim_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no pending claim", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := levelcrush.NewClient(srv.URL, "shared-secret")
	_, err := c.Claim(context.Background(), "tok-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_Claim_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := levelcrush.NewClient(srv.URL, "shared-secret")
	_, err := c.Claim(context.Background(), "tok-1")
	require.Error(t, err)
}
