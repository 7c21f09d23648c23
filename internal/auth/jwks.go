package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	applog "coffeeshop/internal/log"
)

const (
	defaultKeyCacheSize   = 32
	defaultMinRefresh     = time.Minute
	defaultJWKSTimeout    = 10 * time.Second
	maxJWKSDocumentLength = 1 << 20
)

// JWKS is a KeySource backed by the issuer's published JSON Web Key Set.
// Keys are fetched on first use and cached for the life of the process; an
// unknown kid triggers a refetch at most once per refresh interval, whether or
// not the previous fetch succeeded.
type JWKS struct {
	url        string
	client     *http.Client
	keys       *lru.Cache
	group      singleflight.Group
	minRefresh time.Duration
	now        func() time.Time

	mu        sync.Mutex
	lastFetch time.Time
	lastErr   error
}

// JWKSOption customises a JWKS key source.
type JWKSOption func(*JWKS)

// WithHTTPClient overrides the client used to download the key set.
func WithHTTPClient(client *http.Client) JWKSOption {
	return func(k *JWKS) {
		if client != nil {
			k.client = client
		}
	}
}

// WithMinRefreshInterval bounds how often an unknown kid may trigger a refetch.
func WithMinRefreshInterval(interval time.Duration) JWKSOption {
	return func(k *JWKS) { k.minRefresh = interval }
}

// NewJWKS returns a key source for the key set published at url.
func NewJWKS(url string, opts ...JWKSOption) (*JWKS, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("auth: jwks url must not be empty")
	}
	cache, err := lru.New(defaultKeyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("auth: key cache: %w", err)
	}

	k := &JWKS{
		url:        url,
		client:     &http.Client{Timeout: defaultJWKSTimeout},
		keys:       cache,
		minRefresh: defaultMinRefresh,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Key implements KeySource.
func (k *JWKS) Key(ctx context.Context, kid string) (any, error) {
	if key, ok := k.keys.Get(kid); ok {
		return key, nil
	}
	if err := k.refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := k.keys.Get(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

// refresh reloads the key set at most once per refresh interval, failed
// attempts included. Concurrent callers share one fetch that runs detached
// from any single caller, and each caller stops waiting when its own context
// ends.
func (k *JWKS) refresh(ctx context.Context) error {
	result := k.group.DoChan(k.url, func() (any, error) {
		k.mu.Lock()
		recent := !k.lastFetch.IsZero() && k.now().Sub(k.lastFetch) < k.minRefresh
		lastErr := k.lastErr
		k.mu.Unlock()
		if recent {
			return nil, lastErr
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultJWKSTimeout)
		defer cancel()
		keys, err := k.fetch(fetchCtx)

		k.mu.Lock()
		k.lastFetch = k.now()
		k.lastErr = err
		k.mu.Unlock()

		if err != nil {
			applog.Error(fetchCtx, "failed to fetch signing keys", "url", k.url, "error", err)
			return nil, err
		}
		for kid, key := range keys {
			k.keys.Add(kid, key)
		}
		applog.Debug(fetchCtx, "signing keys refreshed", "url", k.url, "keys", len(keys))
		return nil, nil
	})

	select {
	case res := <-result:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k *JWKS) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var document struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSDocumentLength)).Decode(&document); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(document.Keys))
	for _, jwk := range document.Keys {
		if jwk.Kty != "RSA" || jwk.Kid == "" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		key, err := rsaPublicKey(jwk)
		if err != nil {
			applog.Debug(ctx, "skipping unusable signing key", "kid", jwk.Kid, "error", err)
			continue
		}
		keys[jwk.Kid] = key
	}
	return keys, nil
}

func rsaPublicKey(jwk jsonWebKey) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	exponent := new(big.Int).SetBytes(e)
	if len(n) == 0 || !exponent.IsInt64() || exponent.Int64() < 3 || exponent.Int64() > 1<<31-1 {
		return nil, errors.New("invalid rsa parameters")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exponent.Int64())}, nil
}
