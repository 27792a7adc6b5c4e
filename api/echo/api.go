// Package echo exposes the auth provider over HTTP: login initiation for
// the storefront and admin surfaces, the delegated-login callback, the
// pending-state info lookup, server-to-server registration, and the
// password-reset request route.
package echo

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/levelcrush/commerce-auth/domain"
	"github.com/levelcrush/commerce-auth/internal/levelcrush"
	"github.com/levelcrush/commerce-auth/provider"
)

const resetTokenTTL = 15 * time.Minute

// ResetNotifier hands a password-reset token off for delivery. Templates
// and transport belong to the notification subsystem, not this service.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// AuthAPI holds the route dependencies.
type AuthAPI struct {
	provider   *provider.Provider
	states     domain.StateStore
	identities domain.IdentityStore
	notifier   ResetNotifier
	jwtSecret  []byte
}

// NewAuthAPI initializes the auth HTTP API.
func NewAuthAPI(
	p *provider.Provider,
	states domain.StateStore,
	identities domain.IdentityStore,
	notifier ResetNotifier,
	jwtSecret string,
) *AuthAPI {
	return &AuthAPI{
		provider:   p,
		states:     states,
		identities: identities,
		notifier:   notifier,
		jwtSecret:  []byte(jwtSecret),
	}
}

// RegisterRoutes registers the auth routes. The /auth/user path marks the
// admin surface; the provider branches on it.
func (a *AuthAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/auth/customer/levelcrush", a.LoginHandler)
	e.POST("/auth/customer/levelcrush", a.LoginHandler)
	e.GET("/auth/user/levelcrush", a.LoginHandler)
	e.POST("/auth/user/levelcrush", a.LoginHandler)

	e.GET("/auth/levelcrush/callback", a.CallbackHandler)
	e.POST("/auth/levelcrush/register", a.RegisterHandler)

	e.POST("/store/auth/info", a.InfoHandler)
	e.POST("/auth/customer/levelcrush/reset-password", a.ResetPasswordHandler)
}

type loginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginHandler serves both surfaces: credentials in the body select the
// local password path, anything else initiates a delegated login and
// answers with a redirect to the auth server.
func (a *AuthAPI) LoginHandler(c echo.Context) error {
	var body loginBody
	if c.Request().Method == http.MethodPost {
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, provider.Result{Error: "malformed request body"})
		}
	}

	result := a.provider.Authenticate(c.Request().Context(), provider.Input{
		URL: c.Request().URL.String(),
		Body: map[string]string{
			"email":    body.Email,
			"password": body.Password,
		},
		Query: map[string]string{
			"redirect": c.QueryParam("redirect"),
		},
	})

	if result.Success && result.Location != "" {
		return c.Redirect(http.StatusFound, result.Location)
	}
	return a.renderResult(c, result)
}

// CallbackHandler validates the redirect back from the auth server.
func (a *AuthAPI) CallbackHandler(c echo.Context) error {
	result := a.provider.ValidateCallback(c.Request().Context(), provider.Input{
		Query: map[string]string{
			"token": c.QueryParam("token"),
		},
	})
	return a.renderResult(c, result)
}

// RegisterHandler provisions an identity from a claim pushed by a trusted
// backend, authenticated with the provider API key.
func (a *AuthAPI) RegisterHandler(c echo.Context) error {
	var claim levelcrush.Claim
	if err := c.Bind(&claim); err != nil {
		return c.JSON(http.StatusBadRequest, provider.Result{Error: "malformed request body"})
	}

	result := a.provider.Register(c.Request().Context(), c.Request().Header.Get("X-API-KEY"), &claim)
	return a.renderResult(c, result)
}

type infoResponse struct {
	Success bool              `json:"success"`
	Data    map[string]string `json:"data"`
	Error   string            `json:"error,omitempty"`
}

// InfoHandler lets the storefront peek at a pending login's post-login
// redirect. It reads without consuming; only the callback burns the token.
func (a *AuthAPI) InfoHandler(c echo.Context) error {
	state, err := a.states.GetState(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		if !errors.Is(err, domain.ErrStateNotFound) {
			log.Error().Err(err).Msg("auth state lookup failed")
		}
		return c.JSON(http.StatusOK, infoResponse{
			Success: false,
			Data:    map[string]string{},
			Error:   "failed to find matching identity",
		})
	}

	return c.JSON(http.StatusOK, infoResponse{
		Success: true,
		Data:    map[string]string{"redirect": state.UserRedirect},
	})
}

type resetPasswordBody struct {
	Identifier string `json:"identifier" form:"identifier"`
}

// ResetPasswordHandler mints a short-lived reset token for the most
// recent identity matching the identifier and hands it to the notifier.
// The token is never part of the response.
func (a *AuthAPI) ResetPasswordHandler(c echo.Context) error {
	var body resetPasswordBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, provider.Result{Error: "malformed request body"})
	}

	identities, err := a.identities.QueryByEmail(c.Request().Context(), body.Identifier)
	if err != nil {
		log.Error().Err(err).Msg("reset password identity query failed")
		return c.NoContent(http.StatusInternalServerError)
	}
	if len(identities) == 0 {
		return c.NoContent(http.StatusNotFound)
	}

	identity := identities[0] // most recent by creation time

	token, err := a.signResetToken(identity)
	if err != nil {
		log.Error().Err(err).Msg("reset token signing failed")
		return c.NoContent(http.StatusInternalServerError)
	}

	if err := a.notifier.SendPasswordReset(c.Request().Context(), identity.ProviderMetadata.Email, token); err != nil {
		// Delivery failures must not reveal whether the identity exists.
		log.Error().Err(err).Msg("reset notification dispatch failed")
	}

	return c.NoContent(http.StatusCreated)
}

func (a *AuthAPI) signResetToken(identity *domain.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"entity_id":  identity.EntityID,
		"provider":   domain.ProviderName,
		"actor_type": "customer",
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(resetTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

// renderResult maps a provider result onto HTTP: success is 200 with the
// result body, failure is 401 with the generic reason.
func (a *AuthAPI) renderResult(c echo.Context, result provider.Result) error {
	if result.Success {
		return c.JSON(http.StatusOK, result)
	}
	return c.JSON(http.StatusUnauthorized, result)
}
