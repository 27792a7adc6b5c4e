package provider

import (
	"context"

	"github.com/levelcrush/commerce-auth/domain"
	autherrors "github.com/levelcrush/commerce-auth/errors"
)

// UpdatePassword hashes and stores a new local password for an existing
// identity. An empty password is "nothing to update" and succeeds as a
// no-op; a missing entity id fails fast.
func (p *Provider) UpdatePassword(ctx context.Context, entityID, password string) Result {
	if entityID == "" {
		return failure(autherrors.ReasonMissingEntityID)
	}
	if password == "" {
		return Result{Success: true}
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		p.logger.Error().Err(err).Msg("password hash failed")
		return failure(err.Error())
	}

	identity, err := p.identities.Update(ctx, entityID, domain.IdentityMetadata{
		PasswordHash: &hash,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("entity_id", entityID).
			Msg("password update failed")
		return failure(err.Error())
	}

	return resolved(identity)
}
