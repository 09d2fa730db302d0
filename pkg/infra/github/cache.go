package github

import (
	"sync"
	"time"
)

// responseCache memoizes successful GET response bodies keyed by URL and
// Accept header. An entry older than ttl is treated as absent: get drops a
// stale entry on sight and put sweeps the rest, so no expired body outlives
// the next store. The cache lives as long as its client, so every traversal
// through one client shares it.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body     []byte
	storedAt time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(url, accept string) string {
	return url + "\n" + accept
}

func (x *responseCache) get(key string) ([]byte, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	entry, ok := x.entries[key]
	if !ok {
		return nil, false
	}
	if x.stale(entry) {
		delete(x.entries, key)
		return nil, false
	}
	return entry.body, true
}

func (x *responseCache) put(key string, body []byte) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for k, entry := range x.entries {
		if x.stale(entry) {
			delete(x.entries, k)
		}
	}
	x.entries[key] = cacheEntry{body: body, storedAt: x.now()}
}

func (x *responseCache) stale(entry cacheEntry) bool {
	return x.now().Sub(entry.storedAt) > x.ttl
}
