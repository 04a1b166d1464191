package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-account-service/token"
	"github.com/stretchr/testify/require"
)

const secretStr = "1234"

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestManager_CreateAndParse(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := token.New(token.NewHMACSigner(secretStr), token.WithTTL(time.Hour), token.WithNowFunc(fixedNow(now)))

	raw, claims, err := m.Create("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.Equal(t, "user-1", claims.UserID)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, now.Add(time.Hour), claims.ExpiresAt)

	parsed, err := m.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, claims.UserID, parsed.UserID)
	require.Equal(t, claims.ID, parsed.ID)
	require.True(t, claims.ExpiresAt.Equal(parsed.ExpiresAt))
	require.True(t, claims.IssuedAt.Equal(parsed.IssuedAt))
}

func TestManager_TokensAreDistinct(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := token.New(token.NewHMACSigner(secretStr), token.WithNowFunc(fixedNow(now)))

	a, _, err := m.Create("user-1")
	require.NoError(t, err)
	b, _, err := m.Create("user-1")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestManager_ParseRejects(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := token.New(token.NewHMACSigner(secretStr), token.WithTTL(time.Hour), token.WithNowFunc(fixedNow(now)))
	raw, _, err := m.Create("user-1")
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := m.Parse("")
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.jwt")
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := token.New(token.NewHMACSigner("other-secret"), token.WithNowFunc(fixedNow(now)))
		_, err := other.Parse(raw)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := token.New(token.NewHMACSigner(secretStr), token.WithNowFunc(fixedNow(now.Add(2*time.Hour))))
		_, err := later.Parse(raw)
		require.Error(t, err)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := raw[:len(raw)-2] + "xx"
		if tampered == raw {
			tampered = raw[:len(raw)-2] + "yy"
		}
		_, err := m.Parse(tampered)
		require.Error(t, err)
	})

	t.Run("no expiry", func(t *testing.T) {
		unbounded, err := token.NewHMACSigner(secretStr).Sign(jwt.RegisteredClaims{Subject: "user-1"})
		require.NoError(t, err)
		_, err = m.Parse(unbounded)
		require.Error(t, err)
	})

	t.Run("other algorithm", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})
		unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(unsigned)
		require.Error(t, err)
	})
}

func TestManager_CreateRequiresUser(t *testing.T) {
	m := token.New(token.NewHMACSigner(secretStr))
	_, _, err := m.Create("")
	require.Error(t, err)
}
