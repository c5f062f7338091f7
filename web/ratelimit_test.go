package web

import (
	"testing"
	"time"
)

func TestCooldownBlocksWithinWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCooldown(2 * time.Second)
	c.now = func() time.Time { return now }

	if !c.Allow(7) {
		t.Fatal("first request blocked")
	}
	now = now.Add(500 * time.Millisecond)
	if c.Allow(7) {
		t.Fatal("request within the window allowed")
	}
	now = now.Add(2 * time.Second)
	if !c.Allow(7) {
		t.Fatal("request after the window blocked")
	}
}

func TestCooldownIsPerRequester(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCooldown(2 * time.Second)
	c.now = func() time.Time { return now }

	if !c.Allow(1) || !c.Allow(2) {
		t.Fatal("distinct requesters should not share a window")
	}
}

func TestCooldownPrunesStaleEntries(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCooldown(time.Second)
	c.now = func() time.Time { return now }

	for id := int64(0); id < 50; id++ {
		c.Allow(id)
	}
	now = now.Add(5 * time.Second)
	c.Allow(99)

	c.mu.Lock()
	size := len(c.lastSeen)
	c.mu.Unlock()
	if size != 1 {
		t.Fatalf("stale entries not pruned, map size = %d", size)
	}
}
