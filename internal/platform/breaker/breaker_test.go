package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestDo_NilBreakerPassesThrough(t *testing.T) {
	got, err := Do(nil, func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("got %d, %v", got, err)
	}
}

func TestDo_OpensAfterThreshold(t *testing.T) {
	cb := New("test", Settings{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 2}, nil)
	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		if _, err := Do(cb, func() (string, error) { return "", boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected boom, got %v", i, err)
		}
	}
	calls := 0
	_, err := Do(cb, func() (string, error) { calls++; return "ok", nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected fn not to run while open, ran %d times", calls)
	}
}
