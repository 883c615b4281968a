// Package idempotency provides the in-memory, TTL-bounded cache backing
// the Idempotency-Key contract (spec.md §6): a mutating request carrying
// the header is executed at most once per key within the TTL window, and
// replays of the same key with a different body are rejected.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

const (
	// DefaultTTL matches spec.md §6's 24h idempotency window.
	DefaultTTL = 24 * time.Hour
	// CleanupInterval is how often expired records are swept.
	CleanupInterval = 10 * time.Minute
)

type entry struct {
	record   *domain.IdempotencyRecord
	lastSeen time.Time
}

// Cache is a sync.RWMutex-guarded map keyed by Idempotency-Key, with a
// background cleanup goroutine evicting records past ttl. This is the same
// shape as internal/middleware.RateLimiter, generalized from a token bucket
// per key to a single cached response per key.
type Cache struct {
	entries map[string]*entry
	mu      sync.RWMutex
	ttl     time.Duration
	stopCh  chan struct{}
}

// New starts a Cache with the given TTL. A ttl of 0 uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Fingerprint computes the hex-encoded SHA-256 digest of a request body,
// used to detect a key reused with a different body.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Lookup result values. LookupMiss means no record exists for key. LookupHit
// means a matching record was found and should be replayed verbatim.
// LookupConflict means a record exists for key but its fingerprint differs
// from the caller's current request body.
type LookupResult int

const (
	LookupMiss LookupResult = iota
	LookupHit
	LookupConflict
)

// Lookup checks whether key has a cached, non-expired record and compares
// its fingerprint against the current request's.
func (c *Cache) Lookup(key, fingerprint string, now time.Time) (LookupResult, *domain.IdempotencyRecord) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.record.Expired(now, c.ttl) {
		return LookupMiss, nil
	}
	if e.record.Fingerprint != fingerprint {
		return LookupConflict, nil
	}
	return LookupHit, e.record
}

// Store records the response for key. Callers must only store responses
// with status < 500, per spec.md §6 (server errors are never cached).
func (c *Cache) Store(record *domain.IdempotencyRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[record.Key] = &entry{record: record, lastSeen: time.Now()}
}

// cleanup periodically evicts records past ttl, mirroring
// internal/middleware.RateLimiter's cleanup goroutine.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, e := range c.entries {
				if e.record.Expired(now, c.ttl) {
					delete(c.entries, key)
					log.Debug().Str("idempotency_key", key).Msg("evicted expired idempotency record")
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (c *Cache) Stop() {
	close(c.stopCh)
}
