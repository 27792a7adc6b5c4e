package provider

import "github.com/levelcrush/commerce-auth/domain"

// Result is the discriminated outcome of every provider operation. Exactly
// one of the three shapes is populated: a resolved identity, a redirect
// location for delegated login, or a failure with a user-facing reason.
// Failures are data; the provider never lets errors escape this boundary,
// leaving the HTTP layer free to map results to status codes.
type Result struct {
	Success      bool             `json:"success"`
	Identity     *domain.Identity `json:"authIdentity,omitempty"`
	Location     string           `json:"location,omitempty"`
	UserRedirect string           `json:"userRedirect,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func failure(reason string) Result {
	return Result{Success: false, Error: reason}
}

func redirect(location string) Result {
	return Result{Success: true, Location: location}
}

func resolved(identity *domain.Identity) Result {
	return Result{Success: true, Identity: identity}
}
