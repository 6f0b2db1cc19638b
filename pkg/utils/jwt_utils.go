package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecretKey = []byte("change-me-pos-tracker")

// AccessTokenTTL is how long an issued access token stays valid.
var AccessTokenTTL = 12 * time.Hour

const tokenIssuer = "pos-tracker-backend"

// ConfigureJWT sets the signing secret and token lifetime. Called once from main.
func ConfigureJWT(secret string, ttl time.Duration) {
	if secret != "" {
		jwtSecretKey = []byte(secret)
	}
	if ttl > 0 {
		AccessTokenTTL = ttl
	}
}

// Claims defines the JWT claims structure. RegisteredClaims.ID holds the
// session id that scopes server side state such as registration drafts.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token was issued for.
func (c *Claims) SessionID() string {
	return c.ID
}

// GenerateAccessToken creates a new JWT access token for a given user and session.
func GenerateAccessToken(userID int64, username, role, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(AccessTokenTTL)
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the claims if the token is valid, otherwise an error.
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecretKey, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New("token carries no session id")
	}

	return claims, nil
}
