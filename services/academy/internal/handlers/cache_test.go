package handlers

import (
	"testing"
	"time"
)

func TestTTLCache_ExpiryAndInvalidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewTTLCache(time.Minute, nil, "")
	c.now = func() time.Time { return now }

	c.Set("courses:u1", 1)
	c.Set("courses:u2", 2)
	if v, ok := c.Get("courses:u1"); !ok || v != 1 {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}

	c.Invalidate("courses:u1")
	if _, ok := c.Get("courses:u1"); ok {
		t.Fatal("expected invalidated key to miss")
	}
	if _, ok := c.Get("courses:u2"); !ok {
		t.Fatal("other keys must survive a single-key invalidation")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("courses:u2"); ok {
		t.Fatal("expected expired key to miss")
	}

	c.Set("a", 1)
	c.Invalidate("ALL")
	if _, ok := c.Get("a"); ok {
		t.Fatal("ALL clears every key")
	}
}
