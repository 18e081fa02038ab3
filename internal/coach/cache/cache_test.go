package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New(10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("hit on empty cache")
	}

	c.Set("k", "a reply")
	if got, ok := c.Get("k"); !ok || got != "a reply" {
		t.Errorf("Get = %q, %v", got, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit / 1 miss", stats)
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}

	// Touch k0 so k1 becomes least recently used
	c.Get("k0")
	c.Set("k3", "v")

	if _, ok := c.Get("k1"); ok {
		t.Error("k1 should have been evicted")
	}
	if _, ok := c.Get("k0"); !ok {
		t.Error("recently used k0 evicted")
	}
	if c.Len() != 3 {
		t.Errorf("len = %d, want 3", c.Len())
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, 10*time.Millisecond)

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}
	if c.Stats().Expirations != 1 {
		t.Errorf("expirations = %d, want 1", c.Stats().Expirations)
	}
}

func TestHashKeyStable(t *testing.T) {
	a := HashKey("question", 7, "active")
	b := HashKey("question", 7, "active")
	if a != b {
		t.Errorf("same inputs hashed differently: %s vs %s", a, b)
	}
	if a == HashKey("question", 8, "active") {
		t.Error("different inputs collided")
	}
	if len(a) != 32 {
		t.Errorf("key length = %d, want 32", len(a))
	}
}
