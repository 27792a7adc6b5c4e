package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	authapi "github.com/levelcrush/commerce-auth/api/echo"
	"github.com/levelcrush/commerce-auth/cache"
	redisstate "github.com/levelcrush/commerce-auth/cache/redis"
	"github.com/levelcrush/commerce-auth/config"
	"github.com/levelcrush/commerce-auth/domain"
	"github.com/levelcrush/commerce-auth/internal/auth"
	"github.com/levelcrush/commerce-auth/internal/levelcrush"
	applog "github.com/levelcrush/commerce-auth/log"
	"github.com/levelcrush/commerce-auth/mongodb"
	"github.com/levelcrush/commerce-auth/provider"
)

// logNotifier stands in for the notification subsystem: reset tokens are
// logged instead of mailed. Delivery is wired up by the deployment that
// owns the mail templates.
type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.logger.Info().
		Str("email", email).
		Str("token", token).
		Msg("password reset requested")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := applog.Setup(cfg.LogLevel, cfg.LogPretty)

	if err := cfg.Provider.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid provider configuration")
	}

	ctx := context.Background()

	mongoClient, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}

	identities, err := mongodb.NewIdentityRepository(ctx, db)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize identity repository")
	}

	states, stopStates, err := buildStateStore(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize state store")
	}

	remote := levelcrush.NewClient(cfg.Provider.AuthServer, cfg.Provider.AuthServerSecret)
	hasher := auth.NewBcryptPasswordHasher(cfg.Provider.SaltRounds)

	authProvider, err := provider.New(cfg.Provider, identities, states, remote, hasher, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build auth provider")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	notifier := logNotifier{logger: logger}
	authapi.NewAuthAPI(authProvider, states, identities, notifier, cfg.JWTSecret).RegisterRoutes(e)

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("http server listening")
		if err := e.Start(":" + cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}
	stopStates()
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("mongodb disconnect error")
	}

	logger.Info().Msg("server stopped")
}

// buildStateStore prefers redis so pending logins survive restarts and
// are shared across replicas; with no REDIS_URL it falls back to the
// in-process store, which is fine for a single instance.
func buildStateStore(ctx context.Context, redisURL string, logger zerolog.Logger) (domain.StateStore, func(), error) {
	if redisURL == "" {
		logger.Warn().Msg("no redis url configured, using in-memory auth state store")
		store := cache.NewMemoryStateStore()
		return store, store.Stop, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, err
	}

	stop := func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}
	return redisstate.NewStateStore(client, "commerce-auth"), stop, nil
}
