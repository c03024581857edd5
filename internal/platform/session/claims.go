package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields of a backend token the client cares about. The
// signature is not checked here; the backend does that on every request.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
	Role  string   `json:"role"`
	Email string   `json:"email"`
}

// ParseClaims decodes the claims of a JWT without verifying it.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token claims: %w", err)
	}
	return claims, nil
}

// ExpiredAt reports whether the token's exp claim is at or before now. Tokens
// without exp never expire client side.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// AllRoles merges the roles and role claims.
func (c *Claims) AllRoles() []string {
	roles := append([]string(nil), c.Roles...)
	if c.Role != "" {
		roles = append(roles, c.Role)
	}
	return normalizeRoles(roles)
}
