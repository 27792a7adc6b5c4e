package domain

import "time"

// DefaultStateTTL bounds how long a delegated login may stay pending
// before the callback token goes stale.
const DefaultStateTTL = 5 * time.Minute

// PendingAuthState is the ephemeral record created when a delegated login
// is initiated. It is keyed by Token in the state store; Token is repeated
// in the payload so the callback can detect key/value desync. The record is
// consumed exactly once by the callback.
type PendingAuthState struct {
	Token        string    `json:"token"`
	RedirectURL  string    `json:"redirectUrl"`
	Admin        bool      `json:"admin"`
	UserRedirect string    `json:"userRedirect"`
	CreatedAt    time.Time `json:"createdAt"`
}
