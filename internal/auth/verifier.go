package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// KeySource resolves the public key a token was signed with.
type KeySource interface {
	Key(ctx context.Context, kid string) (any, error)
}

// StaticKeys is a fixed KeySource keyed by kid.
type StaticKeys map[string]any

// Key implements KeySource.
func (s StaticKeys) Key(_ context.Context, kid string) (any, error) {
	key, ok := s[kid]
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}
	return key, nil
}

type verifierOptions struct {
	audience   string
	issuer     string
	algorithms []string
	leeway     time.Duration
}

// Option customises a Verifier.
type Option func(*verifierOptions)

// WithAudience requires tokens to be issued for audience.
func WithAudience(audience string) Option {
	return func(o *verifierOptions) { o.audience = audience }
}

// WithIssuer requires tokens to come from issuer.
func WithIssuer(issuer string) Option {
	return func(o *verifierOptions) { o.issuer = issuer }
}

// WithAlgorithms restricts the accepted signing algorithms. RS256 is the default.
func WithAlgorithms(algorithms ...string) Option {
	return func(o *verifierOptions) {
		if len(algorithms) > 0 {
			o.algorithms = algorithms
		}
	}
}

// WithLeeway sets the clock skew tolerated on time based claims.
func WithLeeway(leeway time.Duration) Option {
	return func(o *verifierOptions) { o.leeway = leeway }
}

// Verifier validates bearer tokens against the issuer's signing keys.
type Verifier struct {
	keys   KeySource
	parser *jwt.Parser
}

// NewVerifier builds a Verifier that resolves signing keys through keys.
func NewVerifier(keys KeySource, opts ...Option) *Verifier {
	o := verifierOptions{
		algorithms: []string{jwt.SigningMethodRS256.Alg()},
		leeway:     defaultLeeway,
	}
	for _, opt := range opts {
		opt(&o)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(o.algorithms),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(o.leeway),
	}
	if o.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(o.audience))
	}
	if o.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(o.issuer))
	}

	return &Verifier{keys: keys, parser: jwt.NewParser(parserOpts...)}
}

// Verify checks the token signature, expiry, audience and issuer and returns
// its claims. Failures are reported as *AuthError.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: token has no kid", ErrKeyNotFound)
		}
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return nil, translate(err)
	}
	return claims, nil
}
