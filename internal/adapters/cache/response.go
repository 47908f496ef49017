// Package cache provides the AI response cache.
// Clean Architecture: Adapter implementing ports.ResponseCache.
package cache

import (
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/0xcro3dile/bizchat-go/internal/domain/entities"
)

const (
	DefaultTTL      = 10 * time.Minute
	DefaultCapacity = 100
)

// keyRunes is the allow-list for normalized cache keys.
var keyRunes = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: '0', Hi: '9', Stride: 1},
		{Lo: 'A', Hi: 'Z', Stride: 1},
		{Lo: 'a', Hi: 'z', Stride: 1},
		{Lo: 0x1100, Hi: 0x11FF, Stride: 1}, // Hangul Jamo
		{Lo: 0x3130, Hi: 0x318F, Stride: 1}, // Hangul compatibility Jamo
		{Lo: 0xAC00, Hi: 0xD7A3, Stride: 1}, // Hangul syllables
	},
}

// Key builds the cache key for a query answered in mode.
func Key(mode entities.Mode, query string) string {
	return string(mode) + "-" + Normalize(query)
}

// Normalize lowercases query and drops every rune outside the allow-list.
// White space is kept.
func Normalize(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range strings.ToLower(query) {
		if unicode.IsSpace(r) || unicode.Is(keyRunes, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResponseCache holds AI responses with a fixed lifetime and capacity.
// Reads never refresh recency, so overflow evicts the oldest insertion.
type ResponseCache struct {
	lru *expirable.LRU[string, entities.ChatResponse]
}

// New creates a cache. Non-positive arguments fall back to the defaults.
func New(capacity int, ttl time.Duration) *ResponseCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{
		lru: expirable.NewLRU[string, entities.ChatResponse](capacity, nil, ttl),
	}
}

// Key implements ports.ResponseCache.
func (c *ResponseCache) Key(mode entities.Mode, query string) string {
	return Key(mode, query)
}

// Get returns a live entry for key.
func (c *ResponseCache) Get(key string) (entities.ChatResponse, bool) {
	return c.lru.Peek(key)
}

// Put stores resp under key. A re-put replaces the entry and restarts
// its lifetime.
func (c *ResponseCache) Put(key string, resp entities.ChatResponse) {
	c.lru.Add(key, resp)
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *ResponseCache) Len() int {
	return c.lru.Len()
}
