// Package auth issues and checks the HS256 tokens peers attach to every
// replication call. The subject is the caller's role; both sides share the
// signing secret.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the calling peer's role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

const issuer = "usersync"

func GenerateToken(role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   role,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Role: role,
	})

	return token.SignedString(secretKey)
}

// RoleFromToken validates tokenString and returns the caller's role.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// validation yields common.ErrInvalidToken.
func RoleFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Role == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Role, nil
}

// TokenSource mints a short-lived token for each outbound call.
type TokenSource struct {
	Role     string
	Secret   []byte
	Validity time.Duration
}

func (s TokenSource) Token() (string, error) {
	return GenerateToken(s.Role, s.Secret, s.Validity)
}
