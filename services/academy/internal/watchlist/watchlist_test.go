package watchlist

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_AddListRemove(t *testing.T) {
	known := map[string]bool{"1": true, "2": true, "3": true}
	svc := NewService(NewMemoryStore(), func(id string) bool { return known[id] })
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		if _, err := svc.Add(ctx, "u1", id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	if _, err := svc.Add(ctx, "u1", "2"); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := svc.Add(ctx, "u1", "99"); !errors.Is(err, ErrUnknownCourse) {
		t.Fatalf("expected ErrUnknownCourse, got %v", err)
	}

	list, _ := svc.List(ctx, "u1", 2)
	if len(list) != 2 || list[0].CourseID != "3" || list[1].CourseID != "2" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if ok, _ := svc.Contains(ctx, "u1", "1"); !ok {
		t.Fatal("expected course 1 in watchlist")
	}

	if err := svc.Remove(ctx, "u1", "1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Remove(ctx, "u1", "1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	n, _ := svc.Clear(ctx, "u1")
	if n != 2 {
		t.Fatalf("expected 2 cleared, got %d", n)
	}
	if list, _ := svc.List(ctx, "u1", 0); len(list) != 0 {
		t.Fatalf("expected empty watchlist, got %v", list)
	}
}
