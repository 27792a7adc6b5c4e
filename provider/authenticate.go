package provider

import (
	"context"
	"net/url"
	"strings"

	"github.com/levelcrush/commerce-auth/domain"
	autherrors "github.com/levelcrush/commerce-auth/errors"
)

// Authenticate decides, per request, between the two login paths: a body
// carrying both an email and a password means local credential login;
// anything else initiates a delegated login against the auth server.
func (p *Provider) Authenticate(ctx context.Context, input Input) Result {
	userRedirect := input.Query["redirect"]

	email := strings.TrimSpace(input.Body["email"])
	password := input.Body["password"]

	// Local login only works for identities that already exist, either from
	// a prior Discord login or provisioned ahead of time, and that carry a
	// stored password hash.
	if email != "" && password != "" {
		return p.authenticateLocal(ctx, email, password)
	}

	return p.initiateDelegated(ctx, input.URL, userRedirect)
}

func (p *Provider) authenticateLocal(ctx context.Context, email, password string) Result {
	identities, err := p.identities.QueryByEmail(ctx, email)
	if err != nil {
		p.logger.Error().Err(err).Msg("local login identity query failed")
		return failure(err.Error())
	}

	for _, identity := range identities {
		hash := identity.ProviderMetadata.PasswordHash
		if hash == "" {
			continue
		}
		if p.hasher.Verify(hash, password) != nil {
			continue
		}

		// Re-fetch by entity id so the caller gets the canonical record,
		// not the query projection.
		canonical, err := p.identities.Retrieve(ctx, identity.EntityID)
		if err != nil {
			p.logger.Error().Err(err).Str("entity_id", identity.EntityID).
				Msg("retrieve after password match failed")
			return failure(err.Error())
		}
		return resolved(canonical)
	}

	// One reason for both "unknown email" and "wrong password": the
	// response must not help enumerate accounts.
	return failure(autherrors.ReasonCredentialsMismatch)
}

func (p *Provider) initiateDelegated(ctx context.Context, originURL, userRedirect string) Result {
	isAdmin := strings.Contains(originURL, adminPathMarker)

	token, err := generateStateToken()
	if err != nil {
		p.logger.Error().Err(err).Msg("state token generation failed")
		return failure(autherrors.ReasonClaimFailed)
	}

	target := p.opts.StoreURL + "/callback"
	if isAdmin {
		target = p.opts.BackendURL + "/app/login"
	}
	redirectURL := target + "?token=" + url.QueryEscape(token)

	state := &domain.PendingAuthState{
		Token:        token,
		RedirectURL:  redirectURL,
		Admin:        isAdmin,
		UserRedirect: userRedirect,
	}
	if err := p.states.SetState(ctx, token, state, p.stateTTL); err != nil {
		p.logger.Error().Err(err).Msg("persisting pending auth state failed")
		return failure(err.Error())
	}

	return redirect(p.remote.LoginURL(token, redirectURL, userRedirect))
}
