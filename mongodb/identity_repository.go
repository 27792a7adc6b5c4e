package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/levelcrush/commerce-auth/domain"
)

const AuthIdentitiesCollection = "auth_identities"

// IdentityRepository implements domain.IdentityStore on MongoDB.
//
// Document schema (fixed, not discovered): the metadata bags are nested
// documents with underscore field names; the platform-facing dotted-key
// representation ("discord.email", "account.password") exists only in the
// JSON tags on the domain types.
type IdentityRepository struct {
	collection *mongo.Collection
}

// NewIdentityRepository creates the repository and ensures its indexes.
func NewIdentityRepository(ctx context.Context, db *mongo.Database) (*IdentityRepository, error) {
	repo := &IdentityRepository{
		collection: db.Collection(AuthIdentitiesCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create %s indexes: %w", AuthIdentitiesCollection, err)
	}
	return repo, nil
}

func (r *IdentityRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			// One identity per remote member per provider. Concurrent
			// first-time logins race on this index; the loser retries as an
			// update (see Create).
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Local-login lookup path.
			Keys: bson.D{
				{Key: "provider", Value: 1},
				{Key: "provider_metadata.discord_email", Value: 1},
			},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexModels)
	return err
}

// Create inserts a new identity. When a concurrent upsert already created
// the record (duplicate key), the insert degrades to an update with the
// same metadata, so both callers converge on one record.
func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.Provider == "" {
		identity.Provider = domain.ProviderName
	}
	now := time.Now().UTC()
	identity.CreatedAt = now
	identity.UpdatedAt = now

	if identity.EntityID == "" {
		return nil, errors.New("entity_id is required for an identity")
	}

	_, err := r.collection.InsertOne(ctx, identity)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Debug().Str("entity_id", identity.EntityID).
				Msg("identity create lost a race, retrying as update")
			return r.Update(ctx, identity.EntityID, domain.IdentityMetadata{
				UserMetadata:     &identity.UserMetadata,
				ProviderMetadata: &identity.ProviderMetadata,
			})
		}
		log.Error().Err(err).Str("entity_id", identity.EntityID).
			Msg("error creating identity")
		return nil, err
	}
	return identity, nil
}

// Update applies metadata to the identity keyed by entityID and returns
// the post-update record, or domain.ErrIdentityNotFound.
func (r *IdentityRepository) Update(ctx context.Context, entityID string, meta domain.IdentityMetadata) (*domain.Identity, error) {
	set := bson.M{"updated_at": time.Now().UTC()}

	if meta.UserMetadata != nil {
		set["user_metadata"] = meta.UserMetadata
	}
	if meta.ProviderMetadata != nil {
		// Only the reconciliation fields: a whole-bag replace would wipe a
		// stored password hash on every delegated login.
		set["provider_metadata.discord_id"] = meta.ProviderMetadata.DiscordID
		set["provider_metadata.discord_email"] = meta.ProviderMetadata.Email
	}
	if meta.PasswordHash != nil {
		set["provider_metadata.account_password"] = *meta.PasswordHash
	}

	filter := bson.M{"provider": domain.ProviderName, "entity_id": entityID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Identity
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		log.Error().Err(err).Str("entity_id", entityID).Msg("error updating identity")
		return nil, err
	}
	return &updated, nil
}

// Retrieve loads the canonical record for an entity id.
func (r *IdentityRepository) Retrieve(ctx context.Context, entityID string) (*domain.Identity, error) {
	filter := bson.M{"provider": domain.ProviderName, "entity_id": entityID}

	var identity domain.Identity
	err := r.collection.FindOne(ctx, filter).Decode(&identity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		log.Error().Err(err).Str("entity_id", entityID).Msg("error retrieving identity")
		return nil, err
	}
	return &identity, nil
}

// QueryByEmail lists identities whose provider metadata email matches
// exactly (case-sensitive), most recent first so duplicate-email records
// resolve deterministically.
func (r *IdentityRepository) QueryByEmail(ctx context.Context, email string) ([]*domain.Identity, error) {
	filter := bson.M{
		"provider":                        domain.ProviderName,
		"provider_metadata.discord_email": email,
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		log.Error().Err(err).Msg("error querying identities by email")
		return nil, err
	}
	defer cursor.Close(ctx)

	var identities []*domain.Identity
	if err = cursor.All(ctx, &identities); err != nil {
		log.Error().Err(err).Msg("error decoding queried identities")
		return nil, err
	}
	return identities, nil
}

var _ domain.IdentityStore = (*IdentityRepository)(nil)
