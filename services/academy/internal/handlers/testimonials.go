package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/internal/platform/httpserver"
	"github.com/example/drone-academy/services/academy/internal/testimonials"
)

type publishReq struct {
	Published *bool `json:"is_published"`
}

func listResponse(w http.ResponseWriter, items []testimonials.Testimonial) {
	if items == nil {
		items = []testimonials.Testimonial{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// PublishedTestimonials handles GET /v1/testimonials.
func PublishedTestimonials(svc *testimonials.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPublished(r.Context())
		if err != nil {
			writeError(w, log, httpserver.RequestIDFromContext(r.Context()), err)
			return
		}
		listResponse(w, items)
	}
}

// SubmitTestimonial handles POST /v1/me/testimonials. Submissions await review.
func SubmitTestimonial(svc *testimonials.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, _, ok := caller(w, r)
		if !ok {
			return
		}
		var in testimonials.Input
		if !decodeJSON(w, r, rid, &in) {
			return
		}
		t, err := svc.Submit(r.Context(), in)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, t)
	}
}

// AdminTestimonials handles GET /v1/admin/testimonials.
func AdminTestimonials(svc *testimonials.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAll(r.Context())
		if err != nil {
			writeError(w, log, httpserver.RequestIDFromContext(r.Context()), err)
			return
		}
		listResponse(w, items)
	}
}

// CreateTestimonial handles POST /v1/admin/testimonials.
func CreateTestimonial(svc *testimonials.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var in testimonials.Input
		if !decodeJSON(w, r, rid, &in) {
			return
		}
		t, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, t)
	}
}

// UpdateTestimonial handles PUT /v1/admin/testimonials/{testimonial}.
func UpdateTestimonial(svc *testimonials.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var in testimonials.Input
		if !decodeJSON(w, r, rid, &in) {
			return
		}
		t, err := svc.Update(r.Context(), chi.URLParam(r, "testimonial"), in)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, t)
	}
}

// PublishTestimonial handles PATCH /v1/admin/testimonials/{testimonial}/published.
func PublishTestimonial(svc *testimonials.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req publishReq
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if req.Published == nil {
			api.BadRequest(w, "MISSING_FIELDS", "is_published is required", rid, nil)
			return
		}
		t, err := svc.SetPublished(r.Context(), chi.URLParam(r, "testimonial"), *req.Published)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, t)
	}
}

// DeleteTestimonial handles DELETE /v1/admin/testimonials/{testimonial}.
func DeleteTestimonial(svc *testimonials.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		if err := svc.Delete(r.Context(), chi.URLParam(r, "testimonial")); err != nil {
			writeError(w, log, rid, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
