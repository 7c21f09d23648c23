package auth

import (
	"net/http"
	"strings"
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", newAuthError(KindHeaderMissing, http.StatusUnauthorized, "Authorization header is expected.")
	}

	parts := strings.Fields(header)
	switch {
	case !strings.EqualFold(parts[0], "bearer"):
		return "", newAuthError(KindInvalidHeader, http.StatusUnauthorized, `Authorization header must start with "Bearer".`)
	case len(parts) == 1:
		return "", newAuthError(KindInvalidHeader, http.StatusUnauthorized, "Token not found.")
	case len(parts) > 2:
		return "", newAuthError(KindInvalidHeader, http.StatusUnauthorized, "Authorization header must be bearer token.")
	}
	return parts[1], nil
}
