package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestExpiryOf(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := ExpiryOf(signedToken(t, "user-1", "u@example.com", exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestExpiryOfGarbage(t *testing.T) {
	_, ok := ExpiryOf("not-a-jwt")
	assert.False(t, ok)

	_, ok = ExpiryOf("")
	assert.False(t, ok)
}

func TestIdentityOf(t *testing.T) {
	tok := signedToken(t, "user-9", "pm@squareft.ai", time.Now().Add(time.Hour))

	id, ok := IdentityOf(tok)
	require.True(t, ok)
	assert.Equal(t, "user-9", id.UserID)
	assert.Equal(t, "pm@squareft.ai", id.Email)
}

func TestIdentityOfMissingSubject(t *testing.T) {
	tok := signedToken(t, "", "x@example.com", time.Now().Add(time.Hour))
	_, ok := IdentityOf(tok)
	assert.False(t, ok)
}
