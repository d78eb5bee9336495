package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

const tokenIssuer = "wedding-presents"

// Settings configures the administrator credential and session tokens.
type Settings struct {
	AdminEmail        string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration
}

// Authenticator signs the administrator in and out and resolves bearer tokens.
type Authenticator struct {
	adminEmail   string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	revocations  RevocationStore
	now          func() time.Time
}

// NewAuthenticator creates an authenticator. A nil revocations store falls back to memory.
func NewAuthenticator(settings Settings, revocations RevocationStore) *Authenticator {
	if revocations == nil {
		revocations = NewMemoryRevocationStore()
	}
	ttl := settings.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{
		adminEmail:   normalizeEmail(settings.AdminEmail),
		passwordHash: []byte(strings.TrimSpace(settings.AdminPasswordHash)),
		secret:       []byte(settings.SessionSecret),
		ttl:          ttl,
		revocations:  revocations,
		now:          time.Now,
	}
}

// SignIn verifies the administrator credential and issues a signed session token.
func (a *Authenticator) SignIn(_ context.Context, email, password string) (string, Session, error) {
	if a.adminEmail == "" || len(a.passwordHash) == 0 {
		return "", Session{}, domain.UnauthorizedErr("sign-in is not configured")
	}

	emailMatches := normalizeEmail(email) == a.adminEmail
	// Always run bcrypt so unknown e-mails take as long as wrong passwords.
	passwordErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !emailMatches || passwordErr != nil {
		return "", Session{}, domain.UnauthorizedErr("invalid email or password")
	}

	now := a.now().UTC().Truncate(time.Second)
	session := Session{
		ID:        uuid.NewString(),
		Identity:  a.adminEmail,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.ttl),
	}
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   session.Identity,
		ID:        session.ID,
		IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, session, nil
}

// SignOut revokes the session until it would have expired.
func (a *Authenticator) SignOut(ctx context.Context, session Session) error {
	if session.ID == "" {
		return nil
	}
	if err := a.revocations.Revoke(ctx, session.ID, session.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Resolve validates a bearer token and returns the session it carries.
func (a *Authenticator) Resolve(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, domain.UnauthorizedErr("missing session token")
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, domain.UnauthorizedErr("session expired")
		}
		return Session{}, domain.UnauthorizedErr("invalid session token")
	}
	if claims.ID == "" || claims.Subject == "" {
		return Session{}, domain.UnauthorizedErr("invalid session token")
	}

	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked {
		return Session{}, domain.UnauthorizedErr("session signed out")
	}

	session := Session{ID: claims.ID, Identity: claims.Subject}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
