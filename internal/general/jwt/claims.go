package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Role scopes what a token may be used for.
type Role string

const (
	RoleDriver   Role = "DRIVER"   // dispatch session token
	RoleOperator Role = "OPERATOR" // local control API
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole normalizes (uppercases+trims) and validates a role string.
func ParseRole(in string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(in)))
	if role.Valid() {
		return role, nil
	}
	return "", ErrInvalidRole
}

func (role Role) Valid() bool {
	return role == RoleDriver || role == RoleOperator
}

// Claims defines our canonical JWT claims payload.
type Claims struct {
	Role Role `json:"role"` // DRIVER|OPERATOR
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewClaims constructs claims for subject valid for ttl.
func NewClaims(subject string, role Role, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
