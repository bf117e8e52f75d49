package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/store"
)

type ctxKey int

const userKey ctxKey = iota

// UserResolver maps credentials to users
type UserResolver interface {
	UserByAPIKey(ctx context.Context, key string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthConfig selects how callers are identified
type AuthConfig struct {
	Enabled      bool
	HeaderName   string
	DevUserEmail string // caller identity when auth is disabled
}

// WithUser returns a context carrying the authenticated caller
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the caller set by Auth
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// Auth resolves the caller from an API key (header, then the api_key cookie) and
// stores it in the request context. With auth disabled every request runs as the
// dev user.
func Auth(users UserResolver, cfg AuthConfig) func(http.Handler) http.Handler {
	header := cfg.HeaderName
	if header == "" {
		header = "X-API-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				u   *models.User
				err error
			)
			if cfg.Enabled {
				key := APIKey(r, header)
				if key == "" {
					models.WriteError(w, http.StatusUnauthorized, "API key required")
					return
				}
				u, err = users.UserByAPIKey(r.Context(), key)
				if errors.Is(err, store.ErrNotFound) {
					models.WriteError(w, http.StatusForbidden, "invalid API key")
					return
				}
			} else {
				u, err = users.UserByEmail(r.Context(), cfg.DevUserEmail)
				if errors.Is(err, store.ErrNotFound) {
					log.Error().Str("email", cfg.DevUserEmail).Msg("dev user missing; run `stockwise seed`")
					models.WriteError(w, http.StatusServiceUnavailable, "dev user not provisioned")
					return
				}
			}
			if err != nil {
				log.Error().Err(err).Msg("resolve caller")
				models.WriteError(w, http.StatusServiceUnavailable, "identity lookup failed")
				return
			}

			annotateUser(r.Context(), u.ID)
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), *u)))
		})
	}
}

// APIKey extracts the API key from header or cookie
func APIKey(r *http.Request, header string) string {
	if key := r.Header.Get(header); key != "" {
		return key
	}
	if c, err := r.Cookie("api_key"); err == nil {
		return c.Value
	}
	return ""
}
