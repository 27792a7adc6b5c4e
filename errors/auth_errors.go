package errors

import "fmt"

// ConfigError reports a missing or invalid provider option. It is raised
// once, at provider construction, and is fatal: a misconfigured provider
// must never serve a request.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid provider configuration: %s: %s", e.Option, e.Reason)
}

// NewConfigError builds a ConfigError for a single option.
func NewConfigError(option, reason string) *ConfigError {
	return &ConfigError{Option: option, Reason: reason}
}

// User-facing authentication failure reasons. These are deliberately
// generic: the credentials message is shared by "unknown email" and "wrong
// password", and the session message by "expired", "never existed" and
// "already consumed", so responses cannot be used to enumerate accounts or
// live tokens.
const (
	ReasonCredentialsMismatch = "failed to find a match for those credentials"
	ReasonSessionExpired      = "failed to login or session expired"
	ReasonStateMismatch       = "state mismatch"
	ReasonClaimFailed         = "unable to complete validation"
	ReasonInsufficientAuth    = "insufficient authorization"
	ReasonNoDiscordID         = "no discord id found"
	ReasonMissingEntityID     = "cannot update provider identity without entity_id"
	ReasonBadRequest          = "bad request"
	ReasonUnauthorized        = "unauthorized"
	ReasonNoEmail             = "no associated email"
	ReasonUnsupported         = "this method is not supported at this moment"
)
