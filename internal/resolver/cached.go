// oreon/defense · watchthelight <wtl>

// Package resolver provides reverse-DNS implementations for the network rule.
package resolver

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oreonproject/detect/internal/rules"
)

// DefaultCacheSize is the number of addresses Cached remembers.
const DefaultCacheSize = 1024

// Cached memoizes successful lookups of another resolver.
// Failures are not cached so a later row may retry the address.
type Cached struct {
	next  rules.Resolver
	cache *lru.Cache[string, []string]
}

// NewCached wraps next with an LRU cache of the given size.
func NewCached(next rules.Resolver, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("create rdns cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// LookupAddr serves ip from the cache or delegates to the wrapped resolver.
func (c *Cached) LookupAddr(ctx context.Context, ip string) ([]string, error) {
	if names, ok := c.cache.Get(ip); ok {
		return names, nil
	}
	names, err := c.next.LookupAddr(ctx, ip)
	if err != nil {
		return nil, err
	}
	c.cache.Add(ip, names)
	return names, nil
}

// Len returns the number of cached addresses.
func (c *Cached) Len() int {
	return c.cache.Len()
}
