package auth

import (
	"context"
	"net/http"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the assertions of a verified token.
type Claims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"permissions"`
}

// HasPermissions reports whether the token carried a permissions claim at
// all. An empty list still counts.
func (c *Claims) HasPermissions() bool {
	return c != nil && c.Permissions != nil
}

// Require is the permission gate run after a token has been verified.
func Require(claims *Claims, permission string) error {
	if !claims.HasPermissions() {
		return newAuthError(KindInvalidClaims, http.StatusBadRequest, "Permissions not included in JWT.")
	}
	if !slices.Contains(claims.Permissions, permission) {
		return newAuthError(KindUnauthorized, http.StatusForbidden, "Permission not found.")
	}
	return nil
}

type claimsKey struct{}

// WithClaims stores verified claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}
