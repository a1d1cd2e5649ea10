package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/jobboard/internal/auth"
)

func TestIssueToken(t *testing.T) {
	secret := "testsecret"

	signed, err := auth.IssueToken(secret, time.Hour, 42, "0xWallet")
	require.NoError(t, err)

	tok, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) { return []byte(secret), nil })
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.EqualValues(t, 42, claims["user_id"])
	assert.Equal(t, "0xWallet", claims["wallet"])

	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	assert.Greater(t, int64(exp), time.Now().Unix())
}

func TestIssueToken_NoWalletClaim(t *testing.T) {
	secret := "testsecret"

	signed, err := auth.IssueToken(secret, time.Hour, 7, "")
	require.NoError(t, err)

	tok, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) { return []byte(secret), nil })
	require.NoError(t, err)

	claims := tok.Claims.(jwt.MapClaims)
	_, present := claims["wallet"]
	assert.False(t, present)
}

func TestIssueToken_WrongSecretRejected(t *testing.T) {
	signed, err := auth.IssueToken("right", time.Hour, 7, "")
	require.NoError(t, err)

	_, err = jwt.Parse(signed, func(token *jwt.Token) (any, error) { return []byte("wrong"), nil })
	assert.Error(t, err)
}
