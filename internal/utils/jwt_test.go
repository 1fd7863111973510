package utils

import (
	"booknet/internal/domain"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSessionTokenRoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret").WithClock(fixedClock(issuedAt))

	token, err := svc.IssueSessionToken("user-1")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, issuedAt.Add(SessionTokenTTL), claims.ExpiresAt.Time.UTC())
}

func TestSessionTokenExpiresAfterOneDay(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := NewTokenService("secret").WithClock(fixedClock(issuedAt)).IssueSessionToken("user-1")
	require.NoError(t, err)

	_, err = NewTokenService("secret").WithClock(fixedClock(issuedAt.Add(23 * time.Hour))).Verify(token)
	assert.NoError(t, err)

	_, err = NewTokenService("secret").WithClock(fixedClock(issuedAt.Add(24*time.Hour + time.Second))).Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestShortLivedTokenCarriesData(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret").WithClock(fixedClock(issuedAt))

	token, err := svc.IssueShortLivedToken(map[string]any{"purpose": "verify-email"})
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "verify-email", claims.Data["purpose"])
	assert.Empty(t, claims.UserID)

	_, err = svc.WithClock(fixedClock(issuedAt.Add(6 * time.Minute))).Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret").IssueSessionToken("user-1")
	require.NoError(t, err)

	_, err = NewTokenService("other").Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenService("secret").Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService("secret").Verify(unsigned)
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	_, err := NewTokenService("secret").Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestDecodeIgnoresSignatureAndExpiry(t *testing.T) {
	issuedAt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := NewTokenService("secret").WithClock(fixedClock(issuedAt)).IssueSessionToken("user-1")
	require.NoError(t, err)

	claims, err := NewTokenService("other").Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = NewTokenService("other").Decode("garbage")
	assert.Error(t, err)
}

func TestNewPasswordResetToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, expires, err := NewPasswordResetToken(now)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, strings.ToLower(token), token)
	assert.Equal(t, now.Add(time.Hour), expires)

	other, _, err := NewPasswordResetToken(now)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
