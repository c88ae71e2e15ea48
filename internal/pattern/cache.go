package pattern

import (
	"sync"
	"time"
)

type cacheEntry struct {
	matcher Matcher
	err     error
}

// Cache memoizes compiled patterns for one engine, including compile failures.
// Long-running callers such as the watch command reuse it across runs.
type Cache struct {
	engine  Engine
	timeout time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache returns an empty cache compiling with engine and DefaultMatchTimeout.
func NewCache(engine Engine) *Cache {
	return NewCacheWithTimeout(engine, DefaultMatchTimeout)
}

// NewCacheWithTimeout returns an empty cache compiling with engine and the
// given regexp2 match timeout.
func NewCacheWithTimeout(engine Engine, timeout time.Duration) *Cache {
	return &Cache{
		engine:  engine,
		timeout: timeout,
		entries: make(map[string]cacheEntry),
	}
}

// Compile returns the cached matcher for text, compiling it on first use.
func (c *Cache) Compile(text string) (Matcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[text]; ok {
		return e.matcher, e.err
	}

	m, err := CompileWithTimeout(text, c.engine, c.timeout)
	c.entries[text] = cacheEntry{matcher: m, err: err}
	return m, err
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Engine returns the engine the cache compiles with.
func (c *Cache) Engine() Engine {
	return c.engine
}
