package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var ErrMalformedToken = errors.New("malformed session token")

// Claims are the fields the gateway reads from the parish API's JWT.
// The gateway does not hold the signing key: the API verifies its own tokens.
type Claims struct {
	jwt.StandardClaims
	ID    interface{} `json:"id,omitempty"`
	Email string      `json:"email,omitempty"`
	Role  string      `json:"role,omitempty"`
	Rol   string      `json:"rol,omitempty"`
}

// UserRole returns the normalized role carried by the token.
func (c Claims) UserRole() string {
	if c.Role != "" {
		return NormalizeRole(c.Role)
	}
	return NormalizeRole(c.Rol)
}

// Expiry returns the token expiry, or the zero time when the token has none.
func (c Claims) Expiry() time.Time {
	if c.StandardClaims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(c.StandardClaims.ExpiresAt, 0)
}

// ReadClaims decodes the token payload without verifying its signature.
func ReadClaims(token string) (Claims, error) {
	var claims Claims
	if token == "" {
		return claims, ErrMalformedToken
	}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return claims, errors.Wrap(ErrMalformedToken, err.Error())
	}
	return claims, nil
}
