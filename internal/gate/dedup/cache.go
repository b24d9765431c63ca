// Package dedup suppresses rapid repeat reads of the same tag.  Entries
// are advisory: evicting one slightly early only costs a duplicate audit
// entry, while suppressing a genuinely new read would lose one, so the TTL
// stays short relative to realistic re-swipe intervals.
package dedup

import (
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Second

type Cache struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]struct{}
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, seen: make(map[string]struct{})}
}

// ShouldSuppress reports whether the tag was seen within the TTL.
func (c *Cache) ShouldSuppress(tag string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[tag]
	return ok
}

// MarkSeen records the tag and schedules its expiry.  Marking a tag that
// is already present does not extend its lifetime; the earliest timer
// wins, which at worst evicts early.
func (c *Cache) MarkSeen(tag string) {
	c.mu.Lock()
	c.seen[tag] = struct{}{}
	c.mu.Unlock()

	time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		delete(c.seen, tag)
		c.mu.Unlock()
	})
}
