// Package auth verifies bearer tokens issued by an external identity provider
// and checks the permissions they carry.
package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// Kinds reported in AuthError.Kind.
const (
	KindHeaderMissing    = "authorization_header_missing"
	KindInvalidHeader    = "invalid_header"
	KindInvalidSignature = "invalid_signature"
	KindTokenExpired     = "token_expired"
	KindInvalidClaims    = "invalid_claims"
	KindInvalidKey       = "invalid_key"
	KindUnauthorized     = "unauthorized"
)

// ErrKeyNotFound is returned by a KeySource that has no key for a kid.
var ErrKeyNotFound = errors.New("signing key not found")

// AuthError describes why a request failed authentication or authorization.
// Status is the HTTP status the failure should be reported with.
type AuthError struct {
	Kind        string
	Status      int
	Description string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

func newAuthError(kind string, status int, description string) *AuthError {
	return &AuthError{Kind: kind, Status: status, Description: description}
}

// AsAuthError extracts an AuthError from err.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// translate maps jwt parser failures onto AuthError kinds.
func translate(err error) *AuthError {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return newAuthError(KindInvalidKey, http.StatusUnauthorized, "Unable to find the appropriate key.")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newAuthError(KindInvalidHeader, http.StatusUnauthorized, "Unable to parse authentication token.")
	case errors.Is(err, jwt.ErrTokenExpired):
		return newAuthError(KindTokenExpired, http.StatusUnauthorized, "Token expired.")
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return newAuthError(KindInvalidClaims, http.StatusUnauthorized, "Incorrect claims. Please, check the audience and issuer.")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return newAuthError(KindInvalidSignature, http.StatusUnauthorized, "Token signature could not be verified.")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return newAuthError(KindInvalidKey, http.StatusUnauthorized, "Unable to find the appropriate key.")
	default:
		return newAuthError(KindInvalidHeader, http.StatusUnauthorized, "Unable to parse authentication token.")
	}
}
