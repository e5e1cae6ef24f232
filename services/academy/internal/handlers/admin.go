package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/internal/platform/httpserver"
	"github.com/example/drone-academy/services/academy/internal/authz"
	"github.com/example/drone-academy/services/academy/internal/insights"
)

type viewReq struct {
	ViewAsUser *bool `json:"viewAsUser"`
}

// AdminStatus handles GET /v1/me/admin.
func AdminStatus(svc *authz.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		st, err := svc.Status(r.Context(), id)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, st)
	}
}

// SetAdminView handles PUT /v1/me/admin/view. Non-admins get 403.
func SetAdminView(svc *authz.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		var req viewReq
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if req.ViewAsUser == nil {
			api.BadRequest(w, "MISSING_FIELDS", "viewAsUser is required", rid, nil)
			return
		}
		st, err := svc.SetViewAsUser(r.Context(), id, *req.ViewAsUser)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, st)
	}
}

// Insights handles GET /v1/admin/insights.
func Insights(svc *insights.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ov, err := svc.Overview(r.Context())
		if err != nil {
			writeError(w, log, httpserver.RequestIDFromContext(r.Context()), err)
			return
		}
		api.WriteJSON(w, http.StatusOK, ov)
	}
}
