// file: internal/service/auth_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, exp, err := m.GenToken(42, []string{"admin"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claim, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claim.ID)
	assert.Equal(t, "42", claim.Subject)
	assert.Equal(t, []string{"admin"}, claim.Roles)
	assert.Equal(t, TokenTypeAccess, claim.Type)
	assert.True(t, claim.Elevated())
}

func TestTokenManager_Rejects(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := m.GenToken(1, nil)
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "密钥不同")

	later := *m
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "已过期")

	_, err = m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claim{
		ID: 1, Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken, "签发者不同")

	_, err = NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestClaimContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ClaimFrom(ctx))

	c := &Claim{ID: 3, Type: TokenTypeAccess}
	assert.Same(t, c, ClaimFrom(ContextWithClaim(ctx, c)))
	assert.False(t, c.Elevated())
}
