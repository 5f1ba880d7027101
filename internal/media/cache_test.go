package media

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheHitAndMiss(t *testing.T) {
	c := NewCache(30*time.Minute, 10)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	c.Put("a", []byte("payload"), "image/jpeg")

	item, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if string(item.Data) != "payload" {
		t.Errorf("Data = %q, expected %q", item.Data, "payload")
	}
	if item.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, expected %q", item.ContentType, "image/jpeg")
	}
}

func TestCacheExpiresOnRead(t *testing.T) {
	now := time.Now()
	c := NewCache(30*time.Minute, 10)
	c.now = func() time.Time { return now }

	c.Put("a", []byte("x"), "image/png")

	now = now.Add(29 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry expired before the TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("entry survived past the TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after expired read, expected 0", c.Len())
	}
}

func TestCacheSweepsOnlyAboveCapacity(t *testing.T) {
	now := time.Now()
	c := NewCache(30*time.Minute, 3)
	c.now = func() time.Time { return now }

	c.Put("a", []byte("x"), "")
	c.Put("b", []byte("x"), "")

	// Stale entries below capacity are not swept
	now = now.Add(time.Hour)
	c.Put("c", []byte("x"), "")
	if c.Len() != 3 {
		t.Errorf("Len = %d, expected 3 (no sweep at capacity)", c.Len())
	}

	// The next Put pushes past capacity and sweeps the stale entries
	c.Put("d", []byte("x"), "")
	if c.Len() != 2 {
		t.Errorf("Len = %d after sweep, expected 2", c.Len())
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("fresh entry swept")
	}
	if _, ok := c.Get("d"); !ok {
		t.Error("fresh entry swept")
	}
}

func TestCacheSweepKeepsFreshEntries(t *testing.T) {
	now := time.Now()
	c := NewCache(30*time.Minute, 2)
	c.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("k%d", i), []byte("x"), "")
	}

	// Nothing is stale, so the cache is allowed to exceed its capacity
	if c.Len() != 5 {
		t.Errorf("Len = %d, expected 5", c.Len())
	}
}

func TestCacheDefaults(t *testing.T) {
	c := NewCache(0, 0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, expected %v", c.ttl, DefaultTTL)
	}
	if c.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, expected %d", c.capacity, DefaultCapacity)
	}
}
