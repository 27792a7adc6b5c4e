package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	autherrors "github.com/levelcrush/commerce-auth/errors"
)

// Options configures the auth provider itself. Everything except APIKey
// and BackendURL is required; Validate runs before the provider is
// registered.
type Options struct {
	// AuthServer is the base URL of the remote Discord-backed identity
	// service, e.g. https://auth.levelcrush.com.
	AuthServer string `mapstructure:"AUTH_SERVER"`
	// AuthServerSecret authenticates server-to-server claim calls.
	AuthServerSecret string `mapstructure:"AUTH_SERVER_SECRET"`
	// StoreURL is the storefront origin used for non-admin callbacks.
	StoreURL string `mapstructure:"STORE_URL"`
	// BackendURL is the backend app origin used for admin callbacks.
	BackendURL string `mapstructure:"BACKEND_URL"`
	// SaltRounds is the bcrypt cost factor for local passwords.
	SaltRounds int `mapstructure:"SALT_ROUNDS"`
	// APIKey, when set, enables the server-to-server register endpoint.
	APIKey string `mapstructure:"API_KEY"`
}

// Validate checks the required options. It has no side effects and
// returns a *errors.ConfigError naming the first missing option.
func (o Options) Validate() error {
	if o.AuthServer == "" {
		return autherrors.NewConfigError("AUTH_SERVER", "need auth server defined")
	}
	if o.AuthServerSecret == "" {
		return autherrors.NewConfigError("AUTH_SERVER_SECRET", "need auth server secret defined")
	}
	if o.StoreURL == "" {
		return autherrors.NewConfigError("STORE_URL", "need storefront url defined")
	}
	if o.SaltRounds <= 0 {
		return autherrors.NewConfigError("SALT_ROUNDS", "need a positive bcrypt cost")
	}
	return nil
}

// ServerConfig holds everything the server process needs beyond the
// provider options.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`
	// JWTSecret signs short-lived password-reset tokens.
	JWTSecret string `mapstructure:"JWT_SECRET"`

	Provider Options `mapstructure:",squash"`
}

// Load reads configuration from config.yaml (several search paths),
// environment variables, and defaults, in ascending precedence of env over
// file over defaults.
func Load() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/commerce-auth/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "9000")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/commerce_auth_dev")
	v.SetDefault("MONGO_DB_NAME", "commerce_auth_dev")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("SALT_ROUNDS", 10)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we fall back to env and defaults.
		// Anything else (malformed yaml, permissions) is a real error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
