package domain

import "time"

// ProviderName is the identifier this auth module registers under in the
// commerce platform's provider registry.
const ProviderName = "levelcrush-auth"

// UserMetadata is the denormalized Discord profile snapshot carried on an
// identity. It is informational only and never consulted for access
// decisions. The JSON tags are the fixed dotted-key schema the commerce
// platform expects on the wire.
type UserMetadata struct {
	DiscordID    string   `bson:"discord_id"     json:"discord.id"`
	Handle       string   `bson:"handle"         json:"discord.handle"`
	GlobalName   string   `bson:"global_name"    json:"discord.globalName"`
	ServerMember bool     `bson:"server_member"  json:"discord.server_member"`
	Nicknames    []string `bson:"nicknames"      json:"discord.nicknames"`
	Admin        bool     `bson:"admin"          json:"discord.admin"`
	Moderator    bool     `bson:"moderator"      json:"discord.moderator"`
	Email        string   `bson:"email"          json:"discord.email"`
	Booster      bool     `bson:"booster"        json:"discord.booster"`
	Retired      bool     `bson:"retired"        json:"discord.retired"`
}

// ProviderMetadata holds the minimal fields needed for lookup and
// reconciliation. PasswordHash backs the local email/password fallback and
// is never serialized outward.
type ProviderMetadata struct {
	DiscordID    string `bson:"discord_id"                 json:"discord.id"`
	Email        string `bson:"discord_email"              json:"discord.email"`
	PasswordHash string `bson:"account_password,omitempty" json:"-"`
}

// Identity is a provider identity record reconciled from the remote auth
// server. EntityID is the remote Discord snowflake; it is the durable key
// and is never generated locally.
type Identity struct {
	ID               string           `bson:"_id,omitempty"     json:"id,omitempty"`
	Provider         string           `bson:"provider"          json:"provider"`
	EntityID         string           `bson:"entity_id"         json:"entity_id"`
	UserMetadata     UserMetadata     `bson:"user_metadata"     json:"user_metadata"`
	ProviderMetadata ProviderMetadata `bson:"provider_metadata" json:"provider_metadata"`
	CreatedAt        time.Time        `bson:"created_at"        json:"created_at"`
	UpdatedAt        time.Time        `bson:"updated_at"        json:"updated_at"`
}

// IdentityMetadata bundles the metadata written during an upsert. A nil
// field leaves the stored counterpart untouched; ProviderMetadata updates
// only the reconciliation fields so an existing password hash survives a
// delegated login.
type IdentityMetadata struct {
	UserMetadata     *UserMetadata
	ProviderMetadata *ProviderMetadata
	PasswordHash     *string
}
