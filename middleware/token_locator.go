package middleware

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrConflictingCredentials is returned when a token arrives in both the
	// header and the query parameter
	ErrConflictingCredentials = errors.New("token supplied in both header and query parameter")

	// ErrUnsupportedScheme is returned when an Authorization-style header does
	// not carry exactly "bearer <token>"
	ErrUnsupportedScheme = errors.New("unsupported authorization scheme")

	// ErrNoCredential is returned when no source carries a token
	ErrNoCredential = errors.New("no credential presented")
)

// bearerScheme is compared case-sensitively.
const bearerScheme = "bearer"

// TokenSource names the request locations a token may be read from.
type TokenSource struct {
	HeaderName            string
	HeaderIsAuthorization bool
	QueryParam            string
	CookieName            string
}

// Locate selects the single raw token for r. Sources are checked in order:
// header, cookie, query parameter. A header and a query parameter together
// are a conflict regardless of the cookie.
func (s TokenSource) Locate(r *http.Request) (string, error) {
	header := ""
	if s.HeaderName != "" {
		header = r.Header.Get(s.HeaderName)
	}
	param := ""
	if s.QueryParam != "" {
		param = r.URL.Query().Get(s.QueryParam)
	}

	if header != "" && param != "" {
		return "", ErrConflictingCredentials
	}

	if header != "" {
		if !s.HeaderIsAuthorization {
			return header, nil
		}
		return parseBearer(header)
	}

	if s.CookieName != "" {
		if cookie, err := r.Cookie(s.CookieName); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
	}

	if param != "" {
		return param, nil
	}

	return "", ErrNoCredential
}

// parseBearer extracts the token from "bearer <token>".
func parseBearer(value string) (string, error) {
	parts := strings.Fields(value)
	if len(parts) != 2 || parts[0] != bearerScheme {
		return "", ErrUnsupportedScheme
	}
	return parts[1], nil
}
