package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/progress"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// MyCourses handles GET /v1/me/courses?status=&limit=.
// The unfiltered list is cached per user and invalidated on every progress write.
func MyCourses(svc *progress.Service, cache Cache, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		status := progress.Status(strings.TrimSpace(r.URL.Query().Get("status")))
		if status != "" && !status.Valid() {
			api.BadRequest(w, "INVALID_STATUS", "status must be not_started, in_progress or completed", rid, nil)
			return
		}
		limit := queryLimit(r, defaultListLimit, maxListLimit)
		cacheable := cache != nil && status == "" && limit == defaultListLimit
		key := progress.CacheKey(id.UserID)
		if cacheable {
			if v, ok := cache.Get(key); ok {
				api.WriteJSON(w, http.StatusOK, map[string]any{"items": v})
				return
			}
		}
		list, err := svc.List(r.Context(), id.UserID, status, limit)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		if list == nil {
			list = []progress.Record{}
		}
		if cacheable {
			cache.Set(key, list)
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// EnrollCourse handles POST /v1/me/courses/{course}: 201 on first enrollment,
// 200 with the existing record otherwise.
func EnrollCourse(svc *progress.Service, c *catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		course, err := c.BySlug(chi.URLParam(r, "course"))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		rec, created, err := svc.Enroll(r.Context(), id.UserID, course.ID)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		api.WriteJSON(w, status, rec)
	}
}

// MyCourse handles GET /v1/me/courses/{course}.
func MyCourse(svc *progress.Service, c *catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		course, err := c.BySlug(chi.URLParam(r, "course"))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		rec, err := svc.Get(r.Context(), id.UserID, course.ID)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, rec)
	}
}

// UpdateProgress handles PUT /v1/me/courses/{course}/progress.
func UpdateProgress(svc *progress.Service, c *catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		course, err := c.BySlug(chi.URLParam(r, "course"))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		var req progress.Update
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if !req.Status.Valid() {
			api.BadRequest(w, "INVALID_STATUS", "status must be not_started, in_progress or completed", rid, nil)
			return
		}
		rec, err := svc.Upsert(r.Context(), id.UserID, course.ID, req)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, rec)
	}
}
