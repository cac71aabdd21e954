package jwt

import (
	"testing"
	"time"

	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(secret string, now time.Time) *Authenticator {
	a := NewAuthenticator(Config{SecretKey: secret})
	a.now = func() time.Time { return now }
	return a
}

func TestNewAuthenticator_DefaultDuration(t *testing.T) {
	a := NewAuthenticator(Config{SecretKey: "secret"})
	assert.Equal(t, 7*24*time.Hour, a.duration)

	a = NewAuthenticator(Config{SecretKey: "secret", TokenDuration: time.Hour})
	assert.Equal(t, time.Hour, a.duration)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	a := NewAuthenticator(Config{SecretKey: "test-secret"})
	claims := domain.Claims{UserID: "u1", Email: "office@example.com", Role: domain.RoleAdmin}

	token, err := a.Issue(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, claims, *got)
}

func TestVerify_WithinValidityWindow(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestAuthenticator("test-secret", issuedAt)

	token, err := issuer.Issue(domain.Claims{UserID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	verifier := newTestAuthenticator("test-secret", issuedAt.Add(6*24*time.Hour))
	got, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Claims{UserID: "u1", Role: domain.RoleAdmin}, *got)
}

func TestVerify_Expired(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestAuthenticator("test-secret", issuedAt)

	token, err := issuer.Issue(domain.Claims{UserID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	verifier := newTestAuthenticator("test-secret", issuedAt.Add(8*24*time.Hour))
	got, err := verifier.Verify(token)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, identity.ErrExpiredToken)
	assert.NotErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_DifferentSecret(t *testing.T) {
	token, err := NewAuthenticator(Config{SecretKey: "old-secret"}).Issue(domain.Claims{UserID: "u1"})
	require.NoError(t, err)

	got, err := NewAuthenticator(Config{SecretKey: "new-secret"}).Verify(token)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_ExpiredAndDifferentSecret(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	token, err := newTestAuthenticator("old-secret", issuedAt).Issue(domain.Claims{UserID: "u1"})
	require.NoError(t, err)

	_, err = newTestAuthenticator("new-secret", issuedAt.Add(30*24*time.Hour)).Verify(token)

	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_Tampered(t *testing.T) {
	a := NewAuthenticator(Config{SecretKey: "test-secret"})
	token, err := a.Issue(domain.Claims{UserID: "u1", Role: domain.RoleUser})
	require.NoError(t, err)

	// Flip a character in the signature segment.
	tampered := []byte(token)
	last := len(tampered) - 2
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	_, err = a.Verify(string(tampered))
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_Rejects(t *testing.T) {
	secret := []byte("test-secret")

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Claims: domain.Claims{UserID: "u1"},
	}).SignedString(secret)
	require.NoError(t, err)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, tokenClaims{
		Claims: domain.Claims{UserID: "u1"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "missing expiry", token: noExpiry},
		{name: "unexpected algorithm", token: otherAlg},
	}

	a := NewAuthenticator(Config{SecretKey: string(secret)})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Verify(tt.token)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, identity.ErrInvalidToken)
		})
	}
}

func TestIssue_SetsRegisteredClaims(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := newTestAuthenticator("test-secret", issuedAt)

	token, err := a.Issue(domain.Claims{UserID: "u1"})
	require.NoError(t, err)

	var parsed tokenClaims
	_, _, err = jwt.NewParser().ParseUnverified(token, &parsed)
	require.NoError(t, err)

	assert.Equal(t, "u1", parsed.Subject)
	assert.NotEmpty(t, parsed.ID)
	assert.True(t, parsed.IssuedAt.Time.Equal(issuedAt))
	assert.True(t, parsed.ExpiresAt.Time.Equal(issuedAt.Add(7*24*time.Hour)))
}
