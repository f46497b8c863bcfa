package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrTokenExpired = errors.New("token expired")

// CheckUsable rejects a session token that is empty or carries an exp in the past.
// The signature is not verified: only dispatch holds the key. Tokens that are not JWTs pass as opaque.
func CheckUsable(token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(now) {
		return ErrTokenExpired
	}
	return nil
}
