package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/internal/platform/auth"
	"github.com/example/drone-academy/internal/platform/httpserver"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads up to maxRequestBodyBytes from r.Body and decodes JSON into dst.
// On failure it writes a 400 response and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, rid string, dst *T) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
		return false
	}
	return true
}

// caller returns the request id and the authenticated identity, writing a 401
// when there is none.
func caller(w http.ResponseWriter, r *http.Request) (string, auth.Identity, bool) {
	rid := httpserver.RequestIDFromContext(r.Context())
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.Unauthorized(w, "AUTH_MISSING", "authentication required", rid)
		return rid, auth.Identity{}, false
	}
	return rid, id, true
}

// queryLimit parses ?limit=, capped at max. Missing or invalid values give def.
func queryLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
