package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/example/drone-academy/services/academy/internal/format"
)

type scripted struct {
	mu        sync.Mutex
	responses []func(w http.ResponseWriter)
	requests  []*http.Request
}

func (s *scripted) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Clone(context.Background()))
	i := len(s.requests) - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.responses[i](w)
}

func segments(n int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		segs := make([]format.Segment, n)
		for i := range segs {
			segs[i] = format.Segment{Text: "line", Start: float64(i), Duration: 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"transcript": segs})
	}
}

func errorBody(msg string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
	}
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func newTestClient(t *testing.T, s *scripted) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL + "/functions/v1/get-youtube-transcript"}, nil)
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestFetchTranscript_EmptyOnEveryAttempt(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){segments(0)}}
	c, waits := newTestClient(t, s)

	got, err := c.FetchTranscript(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil transcript, got %v", got)
	}
	if len(s.requests) != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", len(s.requests))
	}
	if len(*waits) != 2 || (*waits)[0] != time.Second || (*waits)[1] != 2*time.Second {
		t.Fatalf("expected waits [1s 2s], got %v", *waits)
	}
}

func TestFetchTranscript_SuccessShortCircuits(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){status(http.StatusBadGateway), segments(2), segments(5)}}
	c, waits := newTestClient(t, s)

	got, err := c.FetchTranscript(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if len(s.requests) != 2 {
		t.Fatalf("expected no third attempt, got %d calls", len(s.requests))
	}
	if len(*waits) != 1 || (*waits)[0] != time.Second {
		t.Fatalf("expected a single 1s wait, got %v", *waits)
	}
}

func TestFetchTranscript_ErrorBodyIsFailure(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){errorBody("captions disabled"), errorBody("captions disabled"), segments(1)}}
	c, _ := newTestClient(t, s)

	got, err := c.FetchTranscript(context.Background(), "vid-1")
	if err != nil || len(got) != 1 {
		t.Fatalf("expected success on third attempt, got %v, %v", got, err)
	}
	if len(s.requests) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(s.requests))
	}
}

func TestFetchTranscript_CacheBusting(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){segments(0), segments(1)}}
	c, _ := newTestClient(t, s)
	tick := int64(1_700_000_000_000)
	c.now = func() time.Time {
		tick++
		return time.UnixMilli(tick)
	}

	if _, err := c.FetchTranscript(context.Background(), "abc123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.requests) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(s.requests))
	}
	seen := map[string]bool{}
	for _, r := range s.requests {
		q := r.URL.Query()
		if q.Get("videoId") != "abc123" {
			t.Fatalf("expected videoId param, got %q", q.Get("videoId"))
		}
		if q.Get("_") == "" || seen[q.Get("_")] {
			t.Fatalf("expected a fresh cache-busting param, got %q", q.Get("_"))
		}
		seen[q.Get("_")] = true
		if r.Header.Get("Cache-Control") != "no-cache, no-store, must-revalidate" {
			t.Fatalf("unexpected Cache-Control %q", r.Header.Get("Cache-Control"))
		}
		if r.Header.Get("Pragma") != "no-cache" || r.Header.Get("Expires") != "0" {
			t.Fatalf("missing Pragma/Expires headers: %v", r.Header)
		}
	}
}

func TestFetchTranscript_ContextCancelledDuringBackoff(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){segments(0)}}
	c, _ := newTestClient(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.FetchTranscript(ctx, "vid-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(s.requests) != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", len(s.requests))
	}
}

func TestBackoffDelay(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := backoffDelay(time.Second, i+1); got != w {
			t.Fatalf("attempt %d: got %s, want %s", i+1, got, w)
		}
	}
}
