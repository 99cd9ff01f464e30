package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/innovativecursor/szc-sub001/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name           string
		accessSecret   string
		refreshSecret  string
		accessMinutes  int
		refreshMinutes int
	}{
		{
			name:           "valid parameters",
			accessSecret:   "access-secret-key",
			refreshSecret:  "refresh-secret-key",
			accessMinutes:  15,
			refreshMinutes: 1440,
		},
		{
			name:           "empty secrets",
			accessSecret:   "",
			refreshSecret:  "",
			accessMinutes:  30,
			refreshMinutes: 2880,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTokenService(tt.accessSecret, tt.refreshSecret, tt.accessMinutes, tt.refreshMinutes)

			assert.NotNil(t, ts)
			assert.Equal(t, tt.accessSecret, ts.AccessTokenSecret)
			assert.Equal(t, tt.refreshSecret, ts.RefreshTokenSecret)
			assert.Equal(t, time.Duration(tt.accessMinutes)*time.Minute, ts.AccessTokenExpiry)
			assert.Equal(t, time.Duration(tt.refreshMinutes)*time.Minute, ts.RefreshTokenExpiry)
		})
	}
}

func TestTokenService_GenerateAndVerify(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440)

	beforeGenerate := time.Now()
	pair, err := ts.Generate("user-123", "test@example.com", "user")
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.WithinDuration(t, beforeGenerate.Add(15*time.Minute), pair.AccessExpiresAt, 2*time.Second)
	assert.WithinDuration(t, beforeGenerate.Add(1440*time.Minute), pair.RefreshExpiresAt, 2*time.Second)

	claims, err := ts.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)

	refreshClaims, err := ts.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", refreshClaims.UserID)
}

func TestTokenService_VerifyAccessToken_WrongSecret(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440)
	other := NewTokenService("different-secret", "refresh-secret", 15, 1440)

	pair, err := ts.Generate("user-123", "test@example.com", "user")
	require.NoError(t, err)

	claims, err := other.VerifyAccessToken(pair.AccessToken)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_VerifyAccessToken_RefreshTokenRejected(t *testing.T) {
	// A refresh token must never pass as an access token; the secrets
	// differ on purpose.
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440)

	pair, err := ts.Generate("user-123", "test@example.com", "user")
	require.NoError(t, err)

	claims, err := ts.VerifyAccessToken(pair.RefreshToken)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_VerifyAccessToken_Malformed(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.VerifyAccessToken(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	}
}

func TestTokenService_VerifyAccessToken_Expired(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440)

	now := time.Now()
	expiredClaims := JWTCustomClaims{
		UserID: "user-123",
		Email:  "test@example.com",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-16 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).
		SignedString([]byte(ts.AccessTokenSecret))
	require.NoError(t, err)

	claims, err := ts.VerifyAccessToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestTokenService_VerifyAccessToken_WrongSigningMethod(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440)

	// alg=none is the classic downgrade attempt.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, JWTCustomClaims{UserID: "user-123"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := ts.VerifyAccessToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_ExpiryGetters(t *testing.T) {
	ts := NewTokenService("a", "r", 15, 1440)

	assert.Equal(t, 15*time.Minute, ts.GetAccessTokenExpiry())
	assert.Equal(t, 1440*time.Minute, ts.GetRefreshTokenExpiry())
}
