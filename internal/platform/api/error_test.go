package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return body.Error
}

func TestWriteError_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	BadRequest(rr, "VALIDATION_FAILED", "invalid testimonial", "req-1", map[string]any{"rating": "must be between 1 and 5"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	e := decode(t, rr)
	if e.Code != "VALIDATION_FAILED" || e.RequestID != "req-1" || e.Details["rating"] != "must be between 1 and 5" {
		t.Fatalf("unexpected envelope %+v", e)
	}
}

func TestHelpers_Status(t *testing.T) {
	cases := []struct {
		name  string
		write func(http.ResponseWriter)
		want  int
		code  string
	}{
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "NO_TOKEN", "missing token", "r") }, http.StatusUnauthorized, "NO_TOKEN"},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "NOT_ADMIN", "admins only", "r") }, http.StatusForbidden, "NOT_ADMIN"},
		{"rate limited", func(w http.ResponseWriter) { RateLimited(w, "RATE_LIMITED", "slow down", "r", nil) }, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unavailable", func(w http.ResponseWriter) { Unavailable(w, "PROGRESS_UNAVAILABLE", "try later", "r") }, http.StatusServiceUnavailable, "PROGRESS_UNAVAILABLE"},
		{"internal", func(w http.ResponseWriter) { Internal(w, "r") }, http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tc.write(rr)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			if e := decode(t, rr); e.Code != tc.code || e.Details != nil {
				t.Fatalf("unexpected envelope %+v", e)
			}
		})
	}
}
