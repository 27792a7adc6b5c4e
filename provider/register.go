package provider

import (
	"context"

	autherrors "github.com/levelcrush/commerce-auth/errors"
	"github.com/levelcrush/commerce-auth/internal/levelcrush"
)

// Register provisions an identity from a claim pushed by a trusted
// backend, gated by the configured API key. The operation is unsupported
// unless an API key has been configured for this provider.
func (p *Provider) Register(ctx context.Context, apiKey string, claim *levelcrush.Claim) Result {
	if p.opts.APIKey == "" {
		return failure(autherrors.ReasonUnsupported)
	}

	if apiKey == "" {
		return failure(autherrors.ReasonBadRequest)
	}
	if apiKey != p.opts.APIKey {
		return failure(autherrors.ReasonUnauthorized)
	}

	if claim == nil || claim.Email == "" {
		return failure(autherrors.ReasonNoEmail)
	}

	return p.upsert(ctx, claim)
}
