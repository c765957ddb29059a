// Package identity extracts the viewer's user id from the externally issued
// bearer credential. The synchronizer consumes authentication as a fact: the
// token is never verified here, only decoded, because the backend is the
// party that validates it on every call.
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt"
)

var claimKeys = []string{"sub", "userId", "id"}

// UserIDFromBearer decodes the JWT payload and returns the first user-id
// claim it carries.
func UserIDFromBearer(token string) (string, error) {
	claims := jwt.MapClaims{}
	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("identity: decode bearer token: %w", err)
	}

	for _, key := range claimKeys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", errors.New("identity: bearer token carries no user id claim")
}
