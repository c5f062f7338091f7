package web

import (
	"sync"
	"time"
)

// Cooldown enforces a minimum interval between file requests per requester.
// Stale entries are pruned on each call so the map stays bounded by the set
// of requesters active within the window.
type Cooldown struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[int64]time.Time

	now func() time.Time
}

// NewCooldown creates a limiter with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window:   window,
		lastSeen: make(map[int64]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether the requester may proceed and, if so, records the
// attempt. The attempt is recorded before delivery happens, so a failed
// delivery still counts against the window.
func (c *Cooldown) Allow(requesterID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, seen := range c.lastSeen {
		if now.Sub(seen) >= c.window {
			delete(c.lastSeen, id)
		}
	}

	if seen, ok := c.lastSeen[requesterID]; ok && now.Sub(seen) < c.window {
		return false
	}
	c.lastSeen[requesterID] = now
	return true
}
