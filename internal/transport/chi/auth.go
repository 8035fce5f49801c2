package chi

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const requesterKey ctxKey = iota

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// RequesterFromContext returns the tenant bound to the request's API key,
// or empty when auth is disabled.
func RequesterFromContext(ctx context.Context) string {
	requester, _ := ctx.Value(requesterKey).(string)
	return requester
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens and
// binds the key's tenant to the request context. If apiKeys is empty,
// authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys map[string]string) func(http.Handler) http.Handler {
	validKeys := make(map[string]string, len(apiKeys))
	for key, requester := range apiKeys {
		if key != "" {
			validKeys[key] = requester
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled — pass everything through
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt paths
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			token := auth[len(bearerPrefix):]
			requester, ok := validKeys[token]
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), requesterKey, requester)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
