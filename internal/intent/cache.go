package intent

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"dayflow/internal/usercontext"
)

const (
	defaultCacheMaxSize = 1000
	defaultCacheTTL     = 5 * time.Minute
)

// CacheConfig configures the intent cache.
type CacheConfig struct {
	// MaxSize is the maximum number of entries before eviction.
	MaxSize int
	// TTL is how long a cached classification remains valid.
	TTL time.Duration
}

// entry pairs a cached intent with its context hash for observability.
type entry struct {
	intent      Intent
	contextHash string
	storedAt    time.Time
}

// Cache is a TTL/LRU cache of classifications. It is the only state shared
// across concurrent requests, so it must be explicitly owned and injected;
// the expirable LRU underneath is internally synchronized.
type Cache struct {
	lru *expirable.LRU[string, entry]
	ttl time.Duration
}

// NewCache constructs an intent cache. Zero config values fall back to the
// defaults (1000 entries, 5 minutes).
func NewCache(config CacheConfig) *Cache {
	if config.MaxSize <= 0 {
		config.MaxSize = defaultCacheMaxSize
	}
	if config.TTL <= 0 {
		config.TTL = defaultCacheTTL
	}
	return &Cache{
		lru: expirable.NewLRU[string, entry](config.MaxSize, nil, config.TTL),
		ttl: config.TTL,
	}
}

// Key derives the cache key for a message in a given context. The key is
// deliberately coarse: hour plus pressure flags, so near-duplicate contexts
// hit, while materially different states (new hour, schedule appeared,
// pressure flipped) miss.
func Key(message string, snapshot *usercontext.Context) string {
	return fmt.Sprintf("%s|%d|%t|%t|%t",
		strings.ToLower(strings.TrimSpace(message)),
		snapshot.CurrentTime.Hour(),
		snapshot.HasSchedule(),
		snapshot.TaskPressure(),
		snapshot.EmailPressure(),
	)
}

// Get returns the cached intent for key, if present and fresh.
func (c *Cache) Get(key string) (Intent, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return Intent{}, false
	}
	return e.intent, true
}

// Put stores a classification under key.
func (c *Cache) Put(key string, intent Intent, contextHash string) {
	c.lru.Add(key, entry{intent: intent, contextHash: contextHash, storedAt: time.Now()})
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}
