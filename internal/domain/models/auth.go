package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claims structure issued for this API: standard
// registered claims plus a roles array. Tokens are HS256-signed with a
// shared secret by default; a JWKS-backed asymmetric mode is available for
// deployments with an external identity provider.
type Claims struct {
	jwt.RegisteredClaims          // sub, iss, aud, exp, iat
	Roles                []string `json:"roles"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}

// HasRole reports whether the token carries the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
