package config

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used by HashAdminToken.
const DefaultBcryptCost = 12

// AdminAuth is the shared-secret configuration of the admin API.
type AdminAuth struct {
	Token     string // plain shared secret
	TokenHash string // bcrypt hash of the shared secret
}

// AdminAuth returns the admin shared-secret settings.
func (c *Config) AdminAuth() AdminAuth {
	return AdminAuth{Token: c.AdminToken, TokenHash: c.AdminTokenHash}
}

// Enabled reports whether any admin secret is configured. When none is, admin requests are
// not gated.
func (a AdminAuth) Enabled() bool {
	return a.Token != "" || a.TokenHash != ""
}

// Verify checks a presented token against the plain secret and the bcrypt hash.
func (a AdminAuth) Verify(presented string) bool {
	if presented == "" {
		return false
	}
	if a.Token != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(a.Token)) == 1 {
		return true
	}
	if a.TokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.TokenHash), []byte(presented)) == nil
	}
	return false
}

// HashAdminToken hashes a token for use as ADMIN_TOKEN_HASH.
func HashAdminToken(token string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost out of range: %d", cost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin token: %w", err)
	}
	return string(hash), nil
}
