package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/internal/platform/httpserver"
	"github.com/example/drone-academy/services/academy/internal/catalog"
)

// ModuleSource resolves the module list of a course.
type ModuleSource interface {
	Modules(ctx context.Context, courseID string) (catalog.Modules, error)
}

// ListCourses handles GET /v1/courses?level=&topic=&q=
func ListCourses(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		courses := c.List(catalog.Filter{
			Level: catalog.Level(strings.TrimSpace(q.Get("level"))),
			Topic: strings.TrimSpace(q.Get("topic")),
			Query: strings.TrimSpace(q.Get("q")),
		})
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": courses, "topics": c.Topics()})
	}
}

// GetCourse handles GET /v1/courses/{course}; the parameter is a slug or an id.
func GetCourse(c *catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		course, err := c.BySlug(strings.TrimSpace(chi.URLParam(r, "course")))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, course)
	}
}

// CourseModules handles GET /v1/courses/{course}/modules.
func CourseModules(c *catalog.Catalog, modules ModuleSource, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		course, err := c.BySlug(strings.TrimSpace(chi.URLParam(r, "course")))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		mods, err := modules.Modules(r.Context(), course.ID)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, mods)
	}
}

func LearningPaths(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": c.LearningPaths()})
	}
}
