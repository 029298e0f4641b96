// Package secrets provides the bot credential: a process-lifetime cache in
// front of a secret store. The token is fetched on first use and memoized for
// the life of the process; there is no TTL or rotation path, so replacing a
// rotated credential requires a restart.
package secrets

import (
	"context"
	"errors"
	"sync"
)

// ErrSecretUnavailable is returned when the secret store cannot supply the
// requested value (missing parameter, access denied, transport failure).
var ErrSecretUnavailable = errors.New("secret unavailable")

// Provider is the secret-store read capability the cache depends on.
type Provider interface {
	// GetSecret fetches the value stored at path.
	GetSecret(ctx context.Context, path string) (string, error)
}

// TokenCache memoizes a single secret value for the life of the process.
//
// The mutex serializes the first fetch so concurrent first users trigger
// exactly one store call; every caller then observes the same token. A failed
// fetch is returned to the caller but never cached, so a transient store
// outage at startup does not poison the process.
type TokenCache struct {
	provider Provider
	path     string

	mu    sync.Mutex
	token string
}

// NewTokenCache builds a cache reading from provider at path.
func NewTokenCache(provider Provider, path string) *TokenCache {
	return &TokenCache{provider: provider, path: path}
}

// Token returns the cached token, fetching it from the secret store on first
// use. The lock covers only the fetch-and-store; callers use the returned
// value without any lock held.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}
	tok, err := c.provider.GetSecret(ctx, c.path)
	if err != nil {
		return "", err
	}
	c.token = tok
	return tok, nil
}
