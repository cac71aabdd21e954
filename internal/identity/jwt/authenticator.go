// Package jwt implements session tokens as HMAC-signed JWTs.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenDuration is the lifetime of a session token.
const DefaultTokenDuration = 7 * 24 * time.Hour

// Config contains token settings.
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
}

// Authenticator issues and verifies session tokens.
type Authenticator struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// NewAuthenticator creates a new JWT authenticator.
func NewAuthenticator(cfg Config) *Authenticator {
	duration := cfg.TokenDuration
	if duration <= 0 {
		duration = DefaultTokenDuration
	}

	return &Authenticator{
		secret:   []byte(cfg.SecretKey),
		duration: duration,
		now:      time.Now,
	}
}

type tokenClaims struct {
	domain.Claims
	jwt.RegisteredClaims
}

// Issue signs the claims into a token valid for the configured duration.
func (a *Authenticator) Issue(claims domain.Claims) (string, error) {
	now := a.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Claims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.duration)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
// The signature is checked first, so an expired token signed with another
// key is reported as invalid rather than expired.
func (a *Authenticator) Verify(raw string) (*domain.Claims, error) {
	var parsed tokenClaims

	_, err := jwt.ParseWithClaims(raw, &parsed, func(_ *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, identity.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}

	claims := parsed.Claims
	return &claims, nil
}
