package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator_RoundTrip(t *testing.T) {
	v, err := NewJWTValidator(JWTConfig{SecretKey: "secret", Issuer: "braindump"})
	require.NoError(t, err)

	token, err := v.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	claims, err := v.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestJWTValidator_Rejects(t *testing.T) {
	v, err := NewJWTValidator(JWTConfig{SecretKey: "secret", Issuer: "braindump"})
	require.NoError(t, err)

	other, err := NewJWTValidator(JWTConfig{SecretKey: "other", Issuer: "braindump"})
	require.NoError(t, err)
	foreign, err := other.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewJWTValidator(JWTConfig{SecretKey: "secret", Issuer: "elsewhere"})
	require.NoError(t, err)
	misissued, err := wrongIssuer.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	expired, err := v.GenerateToken("user-1", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", ErrMissingToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong key", foreign, ErrInvalidSignature},
		{"expired", expired, ErrExpiredToken},
		{"wrong issuer", misissued, ErrInvalidClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}
