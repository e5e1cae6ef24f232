package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_RoundTripAndExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	type lesson struct {
		ID    string `json:"id"`
		Order int    `json:"order"`
	}
	if err := c.Set(ctx, "playlist:p1", []lesson{{ID: "a", Order: 1}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got []lesson
	ok, err := c.Get(ctx, "playlist:p1", &got)
	if err != nil || !ok || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected get: ok=%v err=%v got=%v", ok, err, got)
	}

	now = now.Add(2 * time.Minute)
	ok, _ = c.Get(ctx, "playlist:p1", &got)
	if ok {
		t.Fatal("expected entry to expire")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v")
	_ = c.Delete(ctx, "k")
	var s string
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatal("expected miss after delete")
	}
}
