package tokenizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultCacheSize is the LRU capacity used when none is configured.
const DefaultCacheSize = 10000

// Inner is the tokenizer wrapped by Cached.
type Inner interface {
	Tokenize(text string) []string
}

// Cached memoizes an inner tokenizer in an LRU keyed by the SHA-256 of the text.
// Retraining on a mostly unchanged corpus skips re-tokenizing known documents.
type Cached struct {
	inner      Inner
	cache      *lru.Cache[string, []string]
	cacheTotal *prometheus.CounterVec
}

// NewCached creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"); nil disables counting.
func NewCached(inner Inner, size int, cacheTotal *prometheus.CounterVec) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("create token cache: %w", err)
	}
	return &Cached{inner: inner, cache: c, cacheTotal: cacheTotal}, nil
}

// Tokenize returns cached terms for text or tokenizes and caches them.
func (c *Cached) Tokenize(text string) []string {
	key := cacheKey(text)
	if terms, ok := c.cache.Get(key); ok {
		c.inc("hit")
		return slices.Clone(terms)
	}
	c.inc("miss")

	terms := c.inner.Tokenize(text)
	c.cache.Add(key, slices.Clone(terms))
	return terms
}

// Len returns the number of cached entries.
func (c *Cached) Len() int { return c.cache.Len() }

func (c *Cached) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
