package provider

import (
	"context"
	"errors"

	"github.com/levelcrush/commerce-auth/domain"
	autherrors "github.com/levelcrush/commerce-auth/errors"
)

// ValidateCallback handles the redirect back from the auth server. Each
// step is a potential terminal failure: load-and-consume the pending
// state, self-check the token, trade it for a claim, gate privileges,
// then reconcile the identity.
func (p *Provider) ValidateCallback(ctx context.Context, input Input) Result {
	inputToken := input.Query["token"]

	// Consuming rather than reading closes the replay window: a second
	// callback with the same token fails exactly like an expired one.
	state, err := p.states.ConsumeState(ctx, inputToken)
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			return failure(autherrors.ReasonSessionExpired)
		}
		p.logger.Error().Err(err).Msg("pending auth state lookup failed")
		return failure(err.Error())
	}

	// The stored payload repeats the key; a mismatch means the store
	// returned a record for a different token.
	if state.Token != inputToken {
		return failure(autherrors.ReasonStateMismatch)
	}

	claim, err := p.remote.Claim(ctx, state.Token)
	if err != nil {
		// Raw transport errors stay in the logs; the caller only ever sees
		// the generic reason.
		p.logger.Warn().Err(err).Msg("claim validation against auth server failed")
		return failure(autherrors.ReasonClaimFailed)
	}

	// Elevated Discord privileges are rejected on the admin surface. The
	// polarity is preserved from the upstream contract as observed; see
	// DESIGN.md before changing it.
	if (claim.IsAdmin || claim.IsModerator) && state.Admin {
		return failure(autherrors.ReasonInsufficientAuth)
	}

	result := p.upsert(ctx, claim)
	if result.Success {
		result.UserRedirect = state.UserRedirect
	}
	return result
}
