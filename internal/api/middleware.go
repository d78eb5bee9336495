/**
 * @description
 * Session middleware for the registry API. A bearer token, when present, is resolved into
 * an auth.Session and placed in the request context; admin routes additionally require the
 * session to pass the access gate.
 *
 * @dependencies
 * - internal/auth: Session resolution and the access gate.
 */

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
)

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (auth.Session, error)
}

// SessionMiddleware attaches the caller's session to the request context. Requests without
// an Authorization header continue anonymously; a malformed or rejected token is a 401.
func SessionMiddleware(resolver SessionResolver, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
				writeError(w, r, logger, domain.UnauthorizedErr("invalid authorization header format"))
				return
			}

			session, err := resolver.Resolve(r.Context(), strings.TrimSpace(tokenString))
			if err != nil {
				writeError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// RequireAdmin rejects anonymous callers with 401 and other identities with 403.
func RequireAdmin(gate auth.Gate, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := auth.SessionFromContext(r.Context())
			if !ok || session.IsAnonymous() {
				writeError(w, r, logger, domain.UnauthorizedErr("sign in required"))
				return
			}
			if err := gate.Authorize(session); err != nil {
				logger.Warn().Str("identity", session.Identity).Str("path", r.URL.Path).Msg("admin access denied")
				writeError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionFrom returns the request's session, or the anonymous session.
func sessionFrom(r *http.Request) auth.Session {
	session, _ := auth.SessionFromContext(r.Context())
	return session
}
