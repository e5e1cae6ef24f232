package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/services/academy/internal/watchlist"
)

// ListWatchlist handles GET /v1/me/watchlist?limit=.
func ListWatchlist(svc *watchlist.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		items, err := svc.List(r.Context(), id.UserID, queryLimit(r, defaultListLimit, maxListLimit))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		if items == nil {
			items = []watchlist.Item{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// AddToWatchlist handles PUT /v1/me/watchlist/{course}.
func AddToWatchlist(svc *watchlist.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		item, err := svc.Add(r.Context(), id.UserID, chi.URLParam(r, "course"))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, item)
	}
}

// RemoveFromWatchlist handles DELETE /v1/me/watchlist/{course}.
func RemoveFromWatchlist(svc *watchlist.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		if err := svc.Remove(r.Context(), id.UserID, chi.URLParam(r, "course")); err != nil {
			writeError(w, log, rid, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// InWatchlist handles GET /v1/me/watchlist/{course}.
func InWatchlist(svc *watchlist.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		course := chi.URLParam(r, "course")
		in, err := svc.Contains(r.Context(), id.UserID, course)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"courseId": course, "inWatchlist": in})
	}
}
