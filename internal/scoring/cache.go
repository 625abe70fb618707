package scoring

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/oakline/lettermill/internal/model"
)

// cacheEntry is a cached score report.
type cacheEntry struct {
	expiry time.Time
	report *model.ScoreReport
}

// reportCache provides thread-safe caching of scoring responses, keyed by
// the request contents, so re-running an analysis does not re-bill the
// scoring service.
type reportCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

func newReportCache(ttl time.Duration) *reportCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &reportCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// cacheKey hashes the account numbers and issue type of a request.
func cacheKey(customers []model.CustomerRecord, issueType model.IssueType) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:", issueType)
	for _, c := range customers {
		fmt.Fprintf(h, "%s,", c.AccountNo())
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func (c *reportCache) get(key string) (*model.ScoreReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return nil, false
	}
	return entry.report, true
}

func (c *reportCache) set(key string, report *model.ScoreReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		report: report,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *reportCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *reportCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *reportCache) Close() {
	close(c.stopCh)
}
