// Package translation implements the translation engine: a deduplicating
// content-addressed cache in front of a batching upstream provider, plus
// best-effort speech synthesis with a persistent on-disk cache.
package translation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores translated strings keyed by (normalized text, source, target).
// It is shared across all rooms and all direct translations: a hit for one
// room serves every other caller asking for the same text and pair.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Normalize produces the text form used for cache keys: lower-cased and
// trimmed of surrounding whitespace. Only the key is normalized; the text
// sent upstream stays verbatim.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// CacheKey builds the stable content-addressed key for one translation.
// Keying by a single target language (not the whole target set) is what
// lets different rooms with overlapping languages share cache entries.
func CacheKey(text, sourceLang, targetLang string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\n%s\n%s", Normalize(text), sourceLang, targetLang)))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is the in-process Cache: TTL-expiring with an LRU capacity
// bound, so it degrades under pressure instead of growing without limit.
type MemoryCache struct {
	lru *expirable.LRU[string, string]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Set(key, value string) {
	c.lru.Add(key, value)
}
