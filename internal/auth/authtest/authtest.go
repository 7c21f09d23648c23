// Package authtest mints signed tokens for tests of code guarded by the auth
// package.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"coffeeshop/internal/auth"
)

const (
	KeyID    = "authtest"
	Audience = "drinks"
	Issuer   = "https://authtest.local/"
)

// Authority signs tokens with a throwaway RSA key.
type Authority struct {
	key *rsa.PrivateKey
}

// NewAuthority generates a signing key.
func NewAuthority() (*Authority, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return &Authority{key: key}, nil
}

// Verifier returns a verifier that trusts this authority.
func (a *Authority) Verifier() *auth.Verifier {
	return auth.NewVerifier(
		auth.StaticKeys{KeyID: &a.key.PublicKey},
		auth.WithAudience(Audience),
		auth.WithIssuer(Issuer),
	)
}

// Token returns a valid token granting permissions. With no arguments the
// token carries an empty permissions list.
func (a *Authority) Token(permissions ...string) (string, error) {
	if permissions == nil {
		permissions = []string{}
	}
	return a.sign(claims(permissions))
}

// TokenWithoutPermissions returns a valid token whose payload has no
// permissions key at all.
func (a *Authority) TokenWithoutPermissions() (string, error) {
	now := time.Now()
	return a.sign(jwt.MapClaims{
		"sub": "authtest|user",
		"iss": Issuer,
		"aud": Audience,
		"iat": now.Add(-time.Minute).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
}

// ExpiredToken returns a token that expired an hour ago.
func (a *Authority) ExpiredToken(permissions ...string) (string, error) {
	c := claims(permissions)
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	return a.sign(c)
}

func (a *Authority) sign(c jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	token.Header["kid"] = KeyID
	return token.SignedString(a.key)
}

func claims(permissions []string) auth.Claims {
	return auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "authtest|user",
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Permissions: permissions,
	}
}
