package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-materials-client/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwtlib.RegisteredClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestIntrospect(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	raw := signed(t, jwtlib.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "materials-api",
		IssuedAt:  jwtlib.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour)),
	})

	in, err := token.Introspect(raw)
	require.NoError(t, err)
	require.True(t, in.Active)
	require.Equal(t, "user-1", in.Subject)
	require.Equal(t, "materials-api", in.Issuer)
	require.NotNil(t, in.Exp)
	require.True(t, in.Exp.Equal(now.Add(time.Hour)))
}

func TestIntrospect_Opaque(t *testing.T) {
	_, err := token.Introspect("not-a-jwt")
	require.Error(t, err)

	_, err = token.Introspect("  ")
	require.Error(t, err)
}

func TestExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	past := signed(t, jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(now.Add(-time.Minute))})
	soon := signed(t, jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(now.Add(20 * time.Second))})
	later := signed(t, jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour))})
	noExp := signed(t, jwtlib.RegisteredClaims{Subject: "user-1"})

	require.True(t, token.Expired(past, 0))
	require.True(t, token.Expired(soon, 30*time.Second))
	require.False(t, token.Expired(soon, 0))
	require.False(t, token.Expired(later, 30*time.Second))
	require.False(t, token.Expired(noExp, 0))
	require.False(t, token.Expired("opaque-token", 0))

	in, err := token.Introspect(past)
	require.NoError(t, err)
	require.False(t, in.Active)
}
