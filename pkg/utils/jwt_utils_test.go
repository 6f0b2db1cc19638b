package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, expires, err := GenerateAccessToken(9, "admin", "admin", "sess-9")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), expires, 5*time.Second)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "sess-9", claims.SessionID())
}

func TestValidateTokenRejects(t *testing.T) {
	_, err := ValidateToken("garbage")
	assert.Error(t, err)

	noSession, _, err := GenerateAccessToken(9, "admin", "admin", "")
	require.NoError(t, err)
	_, err = ValidateToken(noSession)
	assert.EqualError(t, err, "token carries no session id")

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           9,
		RegisteredClaims: jwt.RegisteredClaims{ID: "s", Issuer: "someone-else"},
	})
	signed, err := foreign.SignedString(jwtSecretKey)
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 9,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: "s", Issuer: tokenIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err = expired.SignedString(jwtSecretKey)
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestDigitsOnlyAndNullString(t *testing.T) {
	assert.Equal(t, "255712345678", DigitsOnly("+255 712-345 678"))
	assert.Nil(t, NewNullString("   "))
	assert.Equal(t, "x", StringValue(NewNullString("x")))
	assert.Equal(t, "", StringValue(nil))
}
