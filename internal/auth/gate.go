/**
 * @description
 * The access gate decides whether a session belongs to the single administrator identity.
 * It is a configuration-driven policy object with no I/O, so services can check it before
 * touching the store.
 */
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

// Session is the resolved identity of a caller. The zero value is anonymous.
type Session struct {
	ID        string    `json:"-"`
	Identity  string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAnonymous reports whether no identity is attached.
func (s Session) IsAnonymous() bool {
	return strings.TrimSpace(s.Identity) == ""
}

// Gate authorizes the configured administrator e-mail.
type Gate struct {
	adminEmail string
}

// NewGate creates a gate for adminEmail. An empty e-mail authorizes nobody.
func NewGate(adminEmail string) Gate {
	return Gate{adminEmail: normalizeEmail(adminEmail)}
}

// IsAuthorized compares identity with the administrator e-mail, ignoring case and surrounding space.
func (g Gate) IsAuthorized(identity string) bool {
	if g.adminEmail == "" {
		return false
	}
	return normalizeEmail(identity) == g.adminEmail
}

// Authorize returns an authorization error unless session is the administrator.
func (g Gate) Authorize(session Session) error {
	if session.IsAnonymous() {
		return domain.AuthorizationErr("sign in as the administrator to continue")
	}
	if !g.IsAuthorized(session.Identity) {
		return domain.AuthorizationErr("this account is not allowed to manage the registry")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type sessionContextKey struct{}

// WithSession attaches session to ctx.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext returns the session attached by WithSession, or an anonymous one.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}
