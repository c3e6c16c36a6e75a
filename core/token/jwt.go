package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// The client never holds the signing key; the backend stays the authority and
// this is only used to skip a round trip for a token that is certainly dead.
// ok is false for opaque tokens and JWTs without exp.
func ExpiresAt(tok string) (exp time.Time, ok bool) {
	if strings.Count(tok, ".") != 2 {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether tok is a JWT whose exp is at or before now.
func Expired(tok string, now time.Time) bool {
	exp, ok := ExpiresAt(tok)
	return ok && !now.Before(exp)
}
