package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/internal/platform/httpserver"
)

var (
	// ErrNotAdmin is returned by an AdminGuard when the caller holds no admin capability.
	ErrNotAdmin = errors.New("admin access required")
	// ErrViewingAsUser is returned when an admin has switched to the learner view.
	ErrViewingAsUser = errors.New("admin is viewing as user")
)

// AdminGuard decides whether the identity may use admin routes.
type AdminGuard interface {
	AllowAdmin(ctx context.Context, id Identity) error
}

// RequireAdmin allows the request only if RequireUser injected an identity and guard admits it.
func RequireAdmin(guard AdminGuard) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := httpserver.RequestIDFromContext(r.Context())
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				api.Unauthorized(w, "AUTH_MISSING", "missing user", rid)
				return
			}
			if err := guard.AllowAdmin(r.Context(), id); err != nil {
				code := "ADMIN_REQUIRED"
				if errors.Is(err, ErrViewingAsUser) {
					code = "VIEWING_AS_USER"
				}
				api.Forbidden(w, code, err.Error(), rid)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
