package secrets

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeProvider counts fetches and can fail a configurable number of times.
type fakeProvider struct {
	fetches   atomic.Int64
	failFirst int64
	value     string
	err       error
}

func (p *fakeProvider) GetSecret(ctx context.Context, path string) (string, error) {
	n := p.fetches.Add(1)
	if p.err != nil && n <= p.failFirst {
		return "", p.err
	}
	return p.value, nil
}

func TestTokenCache_ConcurrentFirstUseFetchesOnce(t *testing.T) {
	p := &fakeProvider{value: "tok-abc"}
	c := NewTokenCache(p, "/gateway/telegram/bot-token")

	const n = 32
	var wg sync.WaitGroup
	tokens := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = c.Token(context.Background())
		}(i)
	}
	wg.Wait()

	if got := p.fetches.Load(); got != 1 {
		t.Fatalf("store fetches = %d; want exactly 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if tokens[i] != "tok-abc" {
			t.Fatalf("call %d: token = %q; want tok-abc", i, tokens[i])
		}
	}
}

func TestTokenCache_SecondCallUsesCache(t *testing.T) {
	p := &fakeProvider{value: "tok-abc"}
	c := NewTokenCache(p, "/x")

	for i := 0; i < 3; i++ {
		if _, err := c.Token(context.Background()); err != nil {
			t.Fatalf("Token #%d: %v", i+1, err)
		}
	}
	if got := p.fetches.Load(); got != 1 {
		t.Fatalf("fetches = %d; want 1", got)
	}
}

func TestTokenCache_FailureIsNotCached(t *testing.T) {
	p := &fakeProvider{value: "tok-late", failFirst: 1, err: ErrSecretUnavailable}
	c := NewTokenCache(p, "/x")

	if _, err := c.Token(context.Background()); !errors.Is(err, ErrSecretUnavailable) {
		t.Fatalf("first call err = %v; want ErrSecretUnavailable", err)
	}
	tok, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if tok != "tok-late" {
		t.Fatalf("token = %q; want tok-late", tok)
	}
	if got := p.fetches.Load(); got != 2 {
		t.Fatalf("fetches = %d; want 2 (failure retried, success cached)", got)
	}
}
