package coach

import (
	"sync"
	"time"
)

// DefaultResultTTL is how long a finished analysis stays available.
const DefaultResultTTL = 30 * time.Minute

// ResultCache holds the latest analysis outcome per extraction.
// Stored results are never modified; updates replace the entry, so a
// Result returned by Get is safe to read without holding a lock.
type ResultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	results map[string]Result // keyed by extraction rkey
	now     func() time.Time
}

// NewResultCache creates a cache whose finished entries expire after ttl.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		ttl:     ttl,
		results: make(map[string]Result),
		now:     time.Now,
	}
}

// Get returns the cached result for rkey, ignoring expired entries.
func (rc *ResultCache) Get(rkey string) (Result, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	r, ok := rc.results[rkey]
	if !ok || rc.expired(r) {
		return Result{}, false
	}
	return r, true
}

// Set stores r (replaces entirely), stamping it with the current time.
func (rc *ResultCache) Set(r Result) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	r.UpdatedAt = rc.now()
	rc.results[r.RKey] = r
}

// Invalidate removes the result for rkey.
func (rc *ResultCache) Invalidate(rkey string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.results, rkey)
}

// InvalidateAll empties the cache.
func (rc *ResultCache) InvalidateAll() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.results = make(map[string]Result)
}

// In-progress entries never expire; their job replaces them on completion.
func (rc *ResultCache) expired(r Result) bool {
	return r.State != StateInProgress && rc.now().Sub(r.UpdatedAt) > rc.ttl
}

// Cleanup removes expired results.
// This should be called periodically by a background goroutine.
func (rc *ResultCache) Cleanup() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for rkey, r := range rc.results {
		if rc.expired(r) {
			delete(rc.results, rkey)
		}
	}
}

// StartCleanupRoutine starts a background goroutine that periodically cleans up
// expired results. Returns a stop function to gracefully shut down.
func (rc *ResultCache) StartCleanupRoutine(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				rc.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
