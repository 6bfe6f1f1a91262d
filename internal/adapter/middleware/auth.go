package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"budget-portal/internal/auth"
	"budget-portal/internal/domain/user"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ContextKeyCaller holds the auth.Caller in the echo context as well as the request context.
const ContextKeyCaller = "caller"

type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

type UserLookup interface {
	GetByUserID(ctx context.Context, userID string) (*user.User, error)
}

// Authenticator resolves a Bearer token to the user it was issued for.
// Users are cached briefly so a token is not a database round trip on every request.
type Authenticator struct {
	tokens TokenParser
	users  UserLookup
	cache  *expirable.LRU[string, *user.User]
	log    zerolog.Logger
}

func NewAuthenticator(tokens TokenParser, users UserLookup, cacheSize int, cacheTTL time.Duration, log zerolog.Logger) *Authenticator {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	return &Authenticator{
		tokens: tokens,
		users:  users,
		cache:  expirable.NewLRU[string, *user.User](cacheSize, nil, cacheTTL),
		log:    log,
	}
}

// Forget drops a cached user, e.g. after a role change.
func (a *Authenticator) Forget(userID string) { a.cache.Remove(userID) }

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (a *Authenticator) lookup(ctx context.Context, userID string) (*user.User, error) {
	if u, ok := a.cache.Get(userID); ok {
		return u, nil
	}
	u, err := a.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	a.cache.Add(userID, u)
	return u, nil
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="budget-portal"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
}

// Middleware rejects requests without a valid token with 401.
// The role comes from the stored user, not the token, so demotions apply immediately after the cache expires.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			claims, err := a.tokens.Parse(raw)
			if err != nil {
				a.log.Debug().Err(err).Msg("token rejected")
				return unauthorized(c, "invalid or expired token")
			}

			u, err := a.lookup(c.Request().Context(), claims.Subject)
			if errors.Is(err, user.ErrNotFound) {
				return unauthorized(c, "user no longer exists")
			}
			if err != nil {
				a.log.Error().Err(err).Str("user_id", claims.Subject).Msg("load caller")
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}

			caller := auth.CallerFromUser(u)
			c.Set(ContextKeyCaller, caller)
			c.SetRequest(c.Request().WithContext(auth.WithCaller(c.Request().Context(), caller)))
			return next(c)
		}
	}
}
