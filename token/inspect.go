package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minTokenLength is the shortest plausible compact JWT. Anything shorter is
// rejected without decoding.
const minTokenLength = 20

// ErrMalformed is returned when the input is not a structurally plausible
// compact JWT.
var ErrMalformed = errors.New("malformed token")

// Claims is the subset of registered claims the manager needs for local
// expiry gating. Zero time values mean the claim was absent.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	NotBefore time.Time
	IssuedAt  time.Time
}

// Inspect decodes the claims segment of a compact JWT without verifying the
// signature. It rejects empty, short, or non-three-segment input with
// [ErrMalformed] and propagates decoding failures from the underlying parser.
func Inspect(raw string) (*Claims, error) {
	if raw == "" || len(raw) < minTokenLength {
		return nil, ErrMalformed
	}
	segments := strings.Split(raw, ".")
	if len(segments) != 3 || segments[0] == "" || segments[1] == "" {
		return nil, ErrMalformed
	}

	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &registered); err != nil {
		return nil, err
	}

	claims := &Claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	if registered.NotBefore != nil {
		claims.NotBefore = registered.NotBefore.Time
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	return claims, nil
}

// Expired reports whether the token is unusable at now. It is fail-closed:
// any decoding failure, a missing exp claim, exp at or before now, or nbf
// after now all report true. leeway widens the exp comparison to absorb
// clock skew.
func Expired(raw string, now time.Time, leeway time.Duration) bool {
	claims, err := Inspect(raw)
	if err != nil {
		return true
	}
	if claims.ExpiresAt.IsZero() {
		return true
	}
	if !claims.ExpiresAt.Add(leeway).After(now) {
		return true
	}
	if !claims.NotBefore.IsZero() && claims.NotBefore.After(now) {
		return true
	}
	return false
}
