package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/internal/platform/httpserver"
	"github.com/example/drone-academy/internal/platform/signing"
	"github.com/example/drone-academy/services/academy/internal/assessment"
)

type assessmentAnswerReq struct {
	QuestionID string `json:"questionId"`
	Option     *int   `json:"option"`
}

// ListAssessments handles GET /v1/assessments?level=&q=
func ListAssessments(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list := svc.Catalog().List(strings.TrimSpace(q.Get("level")), strings.TrimSpace(q.Get("q")))
		out := make([]assessment.Assessment, len(list))
		for i, a := range list {
			out[i] = a.Summary()
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
	}
}

// GetAssessment handles GET /v1/assessments/{assessment}. Questions are
// included without their answers.
func GetAssessment(svc *assessment.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		a, err := svc.Catalog().ByID(chi.URLParam(r, "assessment"))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, a)
	}
}

// StartAssessment handles POST /v1/me/assessments/{assessment}/attempts.
func StartAssessment(svc *assessment.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		at, err := svc.Start(r.Context(), id.UserID, chi.URLParam(r, "assessment"))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, at)
	}
}

// GetAttempt handles GET /v1/me/attempts/{attempt}.
func GetAttempt(svc *assessment.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		at, err := svc.Get(r.Context(), id.UserID, chi.URLParam(r, "attempt"))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, at)
	}
}

// AnswerAssessment handles POST /v1/me/attempts/{attempt}/answers.
func AnswerAssessment(svc *assessment.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		var req assessmentAnswerReq
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if strings.TrimSpace(req.QuestionID) == "" || req.Option == nil {
			api.BadRequest(w, "MISSING_FIELDS", "questionId and option are required", rid, nil)
			return
		}
		attemptID := chi.URLParam(r, "attempt")
		if err := svc.Answer(r.Context(), id.UserID, attemptID, req.QuestionID, *req.Option); err != nil {
			writeError(w, log, rid, err)
			return
		}
		at, err := svc.Get(r.Context(), id.UserID, attemptID)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, at)
	}
}

// SubmitAssessment handles POST /v1/me/attempts/{attempt}/submit.
func SubmitAssessment(svc *assessment.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		res, err := svc.Submit(r.Context(), id.UserID, chi.URLParam(r, "attempt"))
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	}
}

// IssueCertificate handles POST /v1/me/attempts/{attempt}/certificate.
func IssueCertificate(svc *assessment.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		var h assessment.Holder
		if !decodeJSON(w, r, rid, &h) {
			return
		}
		c, err := svc.IssueCertificate(r.Context(), id.UserID, chi.URLParam(r, "attempt"), h)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

// MyCertificates handles GET /v1/me/certificates.
func MyCertificates(svc *assessment.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		list, err := svc.Certificates(r.Context(), id.UserID)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		if list == nil {
			list = []assessment.Certificate{}
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// VerifyCertificate handles GET /v1/certificates/{certificate}/verify?res=&sub=&exp=&sig=.
func VerifyCertificate(svc *assessment.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		signed, err := signing.ExtractSigned(r.URL.Query())
		if err != nil {
			api.BadRequest(w, "INVALID_SIGNATURE", err.Error(), rid, nil)
			return
		}
		c, err := svc.Verify(r.Context(), chi.URLParam(r, "certificate"), signed)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"valid": true, "certificate": c})
	}
}
