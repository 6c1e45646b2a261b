package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memEntry struct {
	value     []byte
	byteSize  int64
	createdAt time.Time
	expiresAt time.Time // zero = no expiry
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// memTier is the T1 in-memory LRU tier with byte-exact accounting. It wraps
// an unbounded-by-count hashicorp LRU and enforces its own max-bytes
// ceiling, evicting least-recently-used entries until new writes fit.
type memTier struct {
	mu        sync.Mutex
	entries   *lru.Cache[string, *memEntry]
	maxBytes  int64
	curBytes  int64
	stats     TierStats
}

func newMemTier(maxBytes int64) *memTier {
	// A very large count ceiling; the byte ceiling is enforced explicitly.
	c, _ := lru.New[string, *memEntry](1 << 20)
	return &memTier{entries: c, maxBytes: maxBytes}
}

func (m *memTier) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries.Get(key)
	if !ok {
		m.stats.Misses.Add(1)
		return nil, false
	}
	if e.expired(time.Now()) {
		m.entries.Remove(key)
		m.curBytes -= e.byteSize
		m.stats.Misses.Add(1)
		return nil, false
	}
	m.stats.Hits.Add(1)
	return e.value, true
}

// set inserts or overwrites key. Returns false if the entry itself exceeds
// maxBytes (rejected from T1, still written to lower tiers by the caller).
func (m *memTier) set(key string, value []byte, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := int64(len(value))
	if m.maxBytes > 0 && size > m.maxBytes {
		return false
	}

	if old, ok := m.entries.Peek(key); ok {
		m.curBytes -= old.byteSize
		m.entries.Remove(key)
	}

	m.evictUntilFits(size)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	m.entries.Add(key, &memEntry{
		value:     value,
		byteSize:  size,
		createdAt: time.Now(),
		expiresAt: expiresAt,
	})
	m.curBytes += size
	return true
}

// evictUntilFits removes least-recently-used entries (Keys() returns oldest
// first) until incoming bytes fit within the ceiling.
func (m *memTier) evictUntilFits(incoming int64) {
	if m.maxBytes <= 0 {
		return
	}
	for m.curBytes+incoming > m.maxBytes {
		keys := m.entries.Keys()
		if len(keys) == 0 {
			return
		}
		oldest := keys[0]
		if e, ok := m.entries.Peek(oldest); ok {
			m.curBytes -= e.byteSize
			m.stats.Evictions.Add(1)
		}
		m.entries.Remove(oldest)
	}
}

func (m *memTier) remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries.Peek(key); ok {
		m.curBytes -= e.byteSize
	}
	m.entries.Remove(key)
}

func (m *memTier) removeMatching(pred func(key string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.entries.Keys() {
		if pred(k) {
			if e, ok := m.entries.Peek(k); ok {
				m.curBytes -= e.byteSize
			}
			m.entries.Remove(k)
		}
	}
}
