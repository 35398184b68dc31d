package checklist

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/verify"
)

type cachedVerdict struct {
	verdict  llm.ItemVerdict
	decision verify.Decision
	at       time.Time
}

// verdictCache remembers the outcome for an item and an exact context so an
// unchanged transcript does not trigger another oracle round trip. It is used
// only from the session worker.
type verdictCache struct {
	ttl     time.Duration
	entries map[string]cachedVerdict
}

func newVerdictCache(ttl time.Duration) *verdictCache {
	if ttl <= 0 {
		return nil
	}
	return &verdictCache{ttl: ttl, entries: make(map[string]cachedVerdict)}
}

func cacheKey(itemID, context string) string {
	sum := sha256.Sum256([]byte(context))
	return itemID + ":" + hex.EncodeToString(sum[:8])
}

func (c *verdictCache) get(key string, now time.Time) (cachedVerdict, bool) {
	if c == nil {
		return cachedVerdict{}, false
	}
	v, ok := c.entries[key]
	if !ok {
		return cachedVerdict{}, false
	}
	if now.Sub(v.at) > c.ttl {
		delete(c.entries, key)
		return cachedVerdict{}, false
	}
	return v, true
}

func (c *verdictCache) put(key string, v cachedVerdict) {
	if c == nil {
		return
	}
	c.entries[key] = v
	for k, e := range c.entries {
		if v.at.Sub(e.at) > c.ttl {
			delete(c.entries, k)
		}
	}
}
