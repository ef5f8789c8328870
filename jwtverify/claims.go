package jwtverify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrClaimMissing is returned when the username claim is absent
	ErrClaimMissing = errors.New("missing username claim")

	// ErrClaimNotString is returned when the username claim is not a string
	ErrClaimNotString = errors.New("username claim is not a string")
)

// ResolveUsername reads field from verified claims. Email-style values are
// cut at the first "@"; anything else is returned unchanged.
func ResolveUsername(claims jwt.MapClaims, field string) (string, error) {
	value, ok := claims[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrClaimMissing, field)
	}

	username, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T", ErrClaimNotString, field, value)
	}

	if local, _, found := strings.Cut(username, "@"); found {
		return local, nil
	}
	return username, nil
}
