// Package levelcrush is the client for the LevelCrush network auth server,
// the Discord-backed identity service this provider delegates logins to.
// The handshake is a custom token/claim exchange rather than standard
// OAuth2: we redirect the user with an opaque token, and later trade the
// same token for a profile claim over a shared-secret channel.
package levelcrush

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	loginPath = "/platform/discord/login"
	claimPath = "/platform/discord/claim"

	apiKeyHeader = "X-API-KEY"
)

// Claim is the profile payload returned by the auth server's claim
// endpoint. It is untrusted input: only DiscordID is usable as a stable
// key, and the privilege flags merely feed the authorization gate.
type Claim struct {
	DiscordHandle string   `json:"discordHandle"`
	DiscordID     string   `json:"discordId"`
	InServer      bool     `json:"inServer"`
	Email         string   `json:"email"`
	IsAdmin       bool     `json:"isAdmin"`
	IsModerator   bool     `json:"isModerator"`
	Nicknames     []string `json:"nicknames"`
	GlobalName    string   `json:"globalName"`
	IsBooster     bool     `json:"isBooster"`
	IsRetired     bool     `json:"isRetired"`
}

// Client talks to the auth server.
type Client struct {
	baseURL string
	secret  string

	http *http.Client
}

// NewClient creates a Client for the auth server at baseURL, using secret
// for server-to-server claim calls.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// LoginURL builds the auth server login URL the user agent is redirected
// to. The token doubles as the pending-state key and the CSRF correlation
// value; redirectURL is where the auth server sends the user back.
func (c *Client) LoginURL(token, redirectURL, userRedirect string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("redirectUrl", redirectURL)
	q.Set("userRedirect", userRedirect)
	return c.baseURL + loginPath + "?" + q.Encode()
}

// Claim trades token for the profile claim the auth server recorded when
// the user completed the Discord login. The call is bounded by the
// client's timeout; any transport, status, or decode problem is an error.
func (c *Client) Claim(ctx context.Context, token string) (*Claim, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, fmt.Errorf("levelcrush: encode claim request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+claimPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("levelcrush: build claim request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("levelcrush: claim call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the log line, never for the user.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("levelcrush: claim returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var claim Claim
	if err := json.NewDecoder(resp.Body).Decode(&claim); err != nil {
		return nil, fmt.Errorf("levelcrush: decode claim response: %w", err)
	}

	return &claim, nil
}
