package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oggyb/campus-connect/internal/config"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
)

// Claims represents the claims in a session token.
// Subject carries the identity, ID carries the token id used for revocation.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the identity the token was issued to.
func (c *Claims) UserID() string { return c.Subject }

// ExpiresAtTime returns the expiry, zero when the token has none.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// RevocationStore persists revoked token ids and per-user cut-offs.
// Implemented by cache.RedisCache.
type RevocationStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	UserRevokedSince(ctx context.Context, userID string) (time.Time, error)
}

// TokenManager issues and validates HS256 session tokens.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoked RevocationStore
	now     func() time.Time
}

// NewTokenManager builds a TokenManager from the auth section of the config.
func NewTokenManager(cfg config.AuthConfig, revoked RevocationStore) *TokenManager {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret:  []byte(cfg.JWTSecret),
		ttl:     ttl,
		issuer:  cfg.Issuer,
		revoked: revoked,
		now:     time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue generates a token for the given identity.
func (m *TokenManager) Issue(userID, email string) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Validate parses the token, checks signature, expiry and revocation.
//
// Errors:
//   - bad signature, malformed, expired or revoked → ErrUnauthenticated
//   - revocation store unreachable → ErrTransient (fail closed)
func (m *TokenManager) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", svcErr.ErrUnauthenticated)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: token missing subject", svcErr.ErrUnauthenticated)
	}

	if m.revoked == nil {
		return claims, nil
	}

	revoked, err := m.revoked.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: revocation check: %v", svcErr.ErrTransient, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: session signed out", svcErr.ErrUnauthenticated)
	}

	since, err := m.revoked.UserRevokedSince(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: revocation check: %v", svcErr.ErrTransient, err)
	}
	if !since.IsZero() && claims.IssuedAt != nil && !claims.IssuedAt.Time.After(since) {
		return nil, fmt.Errorf("%w: session revoked", svcErr.ErrUnauthenticated)
	}

	return claims, nil
}

// Revoke invalidates one token until its natural expiry.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.revoked == nil {
		return errors.New("no revocation store configured")
	}
	return m.revoked.RevokeToken(ctx, claims.ID, time.Until(claims.ExpiresAtTime()))
}

// RevokeAll invalidates every token the identity holds right now.
func (m *TokenManager) RevokeAll(ctx context.Context, userID string) error {
	if m.revoked == nil {
		return errors.New("no revocation store configured")
	}
	return m.revoked.RevokeUser(ctx, userID, m.now(), m.ttl)
}
