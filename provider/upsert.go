package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/levelcrush/commerce-auth/domain"
	autherrors "github.com/levelcrush/commerce-auth/errors"
	"github.com/levelcrush/commerce-auth/internal/levelcrush"
)

// upsert reconciles an identity from an untrusted claim. Update-first:
// the returning-member case is the common one, creation the exception.
func (p *Provider) upsert(ctx context.Context, claim *levelcrush.Claim) Result {
	if strings.TrimSpace(claim.DiscordID) == "" {
		return failure(autherrors.ReasonNoDiscordID)
	}

	entityID := claim.DiscordID
	meta := metadataFromClaim(claim)

	identity, err := p.identities.Update(ctx, entityID, meta)
	switch {
	case err == nil:
		return resolved(identity)

	case errors.Is(err, domain.ErrIdentityNotFound):
		created, createErr := p.identities.Create(ctx, &domain.Identity{
			Provider:         domain.ProviderName,
			EntityID:         entityID,
			UserMetadata:     *meta.UserMetadata,
			ProviderMetadata: *meta.ProviderMetadata,
		})
		if createErr != nil {
			p.logger.Error().Err(createErr).Str("entity_id", entityID).
				Msg("identity create failed")
			return failure(createErr.Error())
		}
		return resolved(created)

	default:
		p.logger.Error().Err(err).Str("entity_id", entityID).
			Msg("identity update failed")
		return failure(err.Error())
	}
}

// metadataFromClaim derives the two metadata bags from a claim. The user
// bag is a full profile snapshot; the provider bag carries only the
// reconciliation fields, so a stored password hash is never overwritten
// by a delegated login.
func metadataFromClaim(claim *levelcrush.Claim) domain.IdentityMetadata {
	return domain.IdentityMetadata{
		UserMetadata: &domain.UserMetadata{
			DiscordID:    claim.DiscordID,
			Handle:       claim.DiscordHandle,
			GlobalName:   claim.GlobalName,
			ServerMember: claim.InServer,
			Nicknames:    claim.Nicknames,
			Admin:        claim.IsAdmin,
			Moderator:    claim.IsModerator,
			Email:        claim.Email,
			Booster:      claim.IsBooster,
			Retired:      claim.IsRetired,
		},
		ProviderMetadata: &domain.ProviderMetadata{
			DiscordID: claim.DiscordID,
			Email:     claim.Email,
		},
	}
}
