package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postfeed/auth"
)

var signingKey = []byte("test-signing-key")

func TestNewTokenService(t *testing.T) {
	t.Run("requires a signing key", func(t *testing.T) {
		_, err := auth.NewTokenService(nil)
		assert.Error(t, err)
	})

	t.Run("creates a service with a key", func(t *testing.T) {
		ts, err := auth.NewTokenService(signingKey)
		require.NoError(t, err)
		assert.NotNil(t, ts)
	})
}

func TestIssueAndVerify(t *testing.T) {
	ts, err := auth.NewTokenService(signingKey)
	require.NoError(t, err)

	token, err := ts.Issue("account-123", "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	t.Run("verify is deterministic inside the validity window", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			res := ts.Verify(token)
			assert.True(t, res.Authenticated)
			assert.Equal(t, "account-123", res.AccountID)
			assert.Equal(t, "a@x.com", res.Email)
		}
	})

	t.Run("token carries the account id as subject", func(t *testing.T) {
		claims := &auth.Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return signingKey, nil
		})
		require.NoError(t, err)
		require.True(t, parsed.Valid)
		assert.Equal(t, "account-123", claims.Subject)
		assert.Equal(t, "account-123", claims.UserID)
		require.NotNil(t, claims.ExpiresAt)
		ttl := time.Until(claims.ExpiresAt.Time)
		assert.InDelta(t, auth.TokenTTL.Seconds(), ttl.Seconds(), 60)
	})
}

func TestVerifyFailsClosed(t *testing.T) {
	ts, err := auth.NewTokenService(signingKey)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		assert.False(t, ts.Verify("").Authenticated)
	})

	t.Run("malformed token", func(t *testing.T) {
		assert.False(t, ts.Verify("not-a-token").Authenticated)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other, err := auth.NewTokenService([]byte("some-other-key"))
		require.NoError(t, err)

		token, err := other.Issue("account-123", "a@x.com")
		require.NoError(t, err)

		assert.False(t, ts.Verify(token).Authenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &auth.Claims{
			UserID: "account-123",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "account-123",
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
		require.NoError(t, err)

		assert.False(t, ts.Verify(token).Authenticated)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		claims := &auth.Claims{
			UserID: "account-123",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "account-123",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		assert.False(t, ts.Verify(token).Authenticated)
	})

	t.Run("token without an account id", func(t *testing.T) {
		claims := &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
		require.NoError(t, err)

		assert.False(t, ts.Verify(token).Authenticated)
	})
}
