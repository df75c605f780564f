package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager("secret", "wes-idgen", time.Hour)
	require.NoError(t, err)

	desk := int64(10)
	token, err := m.GenerateToken("clerk-1", &desk)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "clerk-1", claims.UserID)
	require.NotNil(t, claims.LocationID)
	assert.Equal(t, desk, *claims.LocationID)

	token, err = m.GenerateToken("clerk-2", nil)
	require.NoError(t, err)
	claims, err = m.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.LocationID)
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager("", "wes-idgen", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestManager_ValidateTokenRejects(t *testing.T) {
	m, err := NewManager("secret", "wes-idgen", time.Hour)
	require.NoError(t, err)

	other, err := NewManager("other-secret", "wes-idgen", time.Hour)
	require.NoError(t, err)
	foreign, err := other.GenerateToken("clerk", nil)
	require.NoError(t, err)

	otherIssuer, err := NewManager("secret", "someone-else", time.Hour)
	require.NoError(t, err)
	misissued, err := otherIssuer.GenerateToken("clerk", nil)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "wes-idgen",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: "clerk",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		expected error
	}{
		{name: "garbage", token: "not-a-token", expected: ErrInvalidToken},
		{name: "wrong secret", token: foreign, expected: ErrInvalidToken},
		{name: "wrong issuer", token: misissued, expected: ErrInvalidToken},
		{name: "expired", token: expired, expected: ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
