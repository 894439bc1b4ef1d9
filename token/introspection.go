// Package token reads the claims of access tokens issued by the API. The
// client cannot verify signatures; claims are used only to anticipate expiry.
package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Introspection is the unverified view of an access token.
// The 'Active' field is false once the token's exp claim has passed.
type Introspection struct {
	Active  bool       // False when the token has expired
	Subject string     // Users unique ID
	Issuer  string     // Issuer of the token
	Iat     *time.Time // Issued at time
	Exp     *time.Time // Expiration
}

// Introspect parses rawToken without verifying its signature.
// Opaque (non-JWT) tokens return an error.
func Introspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("[Introspect] empty token")
	}

	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, &claims); err != nil {
		return nil, errors.Wrap(err, "[Introspect] parse")
	}

	in := &Introspection{
		Active:  true,
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		iat := claims.IssuedAt.Time
		in.Iat = &iat
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		in.Exp = &exp
		in.Active = NowTimeFunc().Before(exp)
	}
	return in, nil
}

// ExpiresAt returns the exp claim of a JWT access token.
func ExpiresAt(rawToken string) (time.Time, bool) {
	in, err := Introspect(rawToken)
	if err != nil || in.Exp == nil {
		return time.Time{}, false
	}
	return *in.Exp, true
}

// Expired reports whether the token is known to expire within leeway.
// Tokens without a readable exp claim are never reported expired.
func Expired(rawToken string, leeway time.Duration) bool {
	exp, ok := ExpiresAt(rawToken)
	if !ok {
		return false
	}
	return !NowTimeFunc().Add(leeway).Before(exp)
}
