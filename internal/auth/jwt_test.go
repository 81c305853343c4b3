package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("client", secret, time.Hour)
	require.NoError(t, err)

	role, err := RoleFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "client", role)
}

func TestRoleFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("server", secret, -1*time.Second)
	require.NoError(t, err)

	_, err = RoleFromToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestRoleFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("client", []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = RoleFromToken(tok, []byte("wrong-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRoleFromToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Role:             "client",
	}).SignedString(secret)
	require.NoError(t, err)

	_, err = RoleFromToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRoleFromToken_Garbage(t *testing.T) {
	t.Parallel()

	_, err := RoleFromToken("not-a-jwt", []byte("secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenSource(t *testing.T) {
	t.Parallel()

	src := TokenSource{Role: "server", Secret: []byte("k"), Validity: time.Minute}
	tok, err := src.Token()
	require.NoError(t, err)

	role, err := RoleFromToken(tok, src.Secret)
	require.NoError(t, err)
	assert.Equal(t, "server", role)
}
