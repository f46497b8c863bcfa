package cli

import (
	"fmt"
	"strings"
	"time"

	"driver-link/internal/general/jwt"
)

// GenerateToken mints a JWT for subject with the given role.
//
// Typical use (dev-only):
//
//	token, _, err := cli.GenerateToken(secret, "driver-17", "DRIVER", 12*time.Hour)
//
// Keep this package dev/internal only. Do not call it from production code paths.
func GenerateToken(secret, subject, roleStr string, ttl time.Duration) (string, jwt.Claims, error) {
	if strings.TrimSpace(secret) == "" {
		return "", jwt.Claims{}, fmt.Errorf("secret is required")
	}
	if subject == "" {
		return "", jwt.Claims{}, fmt.Errorf("subject is required")
	}

	// parse and validate the role
	role, err := jwt.ParseRole(roleStr)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: %w", roleStr, err)
	}

	// generate the JWT token given the subject and its role
	token, claims, err := jwt.NewManager(secret, ttl).IssueToken(subject, role)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *claims, nil
}

// PrintToken writes the token and its claims the way the token mode shows them.
func PrintToken(token string, claims jwt.Claims) string {
	return fmt.Sprintf("TOKEN:\n%s\n\nCLAIMS:\n  sub:  %s\n  role: %s\n  iat:  %s\n  exp:  %s\n",
		token,
		claims.Subject,
		claims.Role,
		claims.IssuedAt.Time.UTC().Format(time.RFC3339),
		claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	)
}
