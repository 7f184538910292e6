package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService("test-secret", 0)
	require.NoError(t, err)
	return s
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestDefaultTTL(t *testing.T) {
	s := newTestService(t)
	assert.Equal(t, 7*24*time.Hour, s.TTL())
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	s := newTestService(t)

	tok, err := s.Issue("user-1", "ana")
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ana", claims.Username)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestIssueRequiresSubject(t *testing.T) {
	s := newTestService(t)
	_, err := s.Issue("", "ana")
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestVerifyExpired(t *testing.T) {
	s := newTestService(t)

	tok, err := s.IssueWithTTL(Claims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyNegativeTTL(t *testing.T) {
	s := newTestService(t)

	tok, err := s.IssueWithTTL(Claims{UserID: "user-1"}, -time.Second)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejects(t *testing.T) {
	s := newTestService(t)
	good, err := s.Issue("user-1", "ana")
	require.NoError(t, err)

	other, err := NewService("other-secret", 0)
	require.NoError(t, err)
	foreign, err := other.Issue("user-1", "ana")
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "user-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "user-1",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":      "",
		"garbage":    "not.a.token",
		"wrong key":  foreign,
		"tampered":   tampered,
		"alg none":   unsigned,
		"no expiry":  noExp,
		"no subject": noSubject,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(tok)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}
