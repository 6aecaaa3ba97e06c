package translate

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	source string
	target string
	text   string
}

// Cached memoises successful translations. It is safe for concurrent use, so
// one instance can be shared by every session in a run.
type Cached struct {
	next  Translator
	cache *lru.Cache[cacheKey, string]
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next Translator, size int) (*Cached, error) {
	cache, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, fmt.Errorf("create translation cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := cacheKey{source: source, target: target, text: text}
	if translated, ok := c.cache.Get(key); ok {
		return translated, nil
	}

	translated, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, translated)
	return translated, nil
}

// Len reports the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.Len()
}
