package auth

import (
	"context"
	"testing"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		UserID:       "user-1",
		Username:     "alice",
		CanBroadcast: true,
		Tier:         "gold",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyIdentity(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	identity, err := v.VerifyIdentity(context.Background(), signToken(t, testSecret, validClaims()))

	require.NoError(t, err)
	assert.Equal(t, domain.UserID("user-1"), identity.UserID)
	assert.Equal(t, "alice", identity.Username)
}

func TestVerifyIdentityRejectsEmptyToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	_, err := v.VerifyIdentity(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestVerifyIdentityRejectsWrongSecret(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	_, err := v.VerifyIdentity(context.Background(), signToken(t, "other-secret", validClaims()))

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestVerifyIdentityRejectsExpiredToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := v.VerifyIdentity(context.Background(), signToken(t, testSecret, claims))

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestVerifyIdentityRequiresUserID(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	claims := validClaims()
	claims.UserID = ""

	_, err := v.VerifyIdentity(context.Background(), signToken(t, testSecret, claims))

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestVerifyIdentityRejectsNonHMACAlgorithm(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.VerifyIdentity(context.Background(), unsigned)

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestParseClaims(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	claims, err := v.ParseClaims(signToken(t, testSecret, validClaims()))

	require.NoError(t, err)
	assert.True(t, claims.CanBroadcast)
	assert.Equal(t, "gold", claims.Tier)
}
