package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/course"
	"github.com/example/drone-academy/services/academy/internal/quiz"
)

type answerReq struct {
	OptionID string `json:"optionId"`
}

// Sessions serves /v1/me/sessions/{course}/...
type Sessions struct {
	Registry *course.Registry
	Catalog  *catalog.Catalog
	Log      *zap.Logger
}

// open resolves the caller's session, writing the error response itself on failure.
func (h Sessions) open(w http.ResponseWriter, r *http.Request) (string, *course.Session, bool) {
	rid, id, ok := caller(w, r)
	if !ok {
		return rid, nil, false
	}
	c, err := h.Catalog.BySlug(chi.URLParam(r, "course"))
	if err != nil {
		writeError(w, h.Log, rid, err)
		return rid, nil, false
	}
	s, err := h.Registry.Open(r.Context(), id.UserID, c.ID)
	if err != nil {
		writeError(w, h.Log, rid, err)
		return rid, nil, false
	}
	return rid, s, true
}

// View handles GET /v1/me/sessions/{course} and GET .../content.
func (h Sessions) View(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.open(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, s.View())
}

// SelectModule handles POST /v1/me/sessions/{course}/modules/{n}.
func (h Sessions) SelectModule(w http.ResponseWriter, r *http.Request) {
	rid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		api.BadRequest(w, "INVALID_MODULE", "module number must be an integer", rid, nil)
		return
	}
	if err := s.SelectModule(n); err != nil {
		writeError(w, h.Log, rid, err)
		return
	}
	api.WriteJSON(w, http.StatusAccepted, s.View())
}

// Retry handles POST /v1/me/sessions/{course}/content/retry.
func (h Sessions) Retry(w http.ResponseWriter, r *http.Request) {
	rid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := s.Retry(); err != nil {
		writeError(w, h.Log, rid, err)
		return
	}
	api.WriteJSON(w, http.StatusAccepted, s.View())
}

// Answer handles POST /v1/me/sessions/{course}/quiz/answer.
func (h Sessions) Answer(w http.ResponseWriter, r *http.Request) {
	rid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	var req answerReq
	if !decodeJSON(w, r, rid, &req) {
		return
	}
	v, err := s.Answer(req.OptionID)
	h.writeQuiz(w, rid, v, err)
}

// Next handles POST /v1/me/sessions/{course}/quiz/next.
func (h Sessions) Next(w http.ResponseWriter, r *http.Request) {
	rid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	out, err := s.Next(r.Context())
	if err != nil {
		writeError(w, h.Log, rid, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, out)
}

// Previous handles POST /v1/me/sessions/{course}/quiz/previous.
func (h Sessions) Previous(w http.ResponseWriter, r *http.Request) {
	rid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	v, err := s.Previous()
	h.writeQuiz(w, rid, v, err)
}

// Reset handles POST /v1/me/sessions/{course}/quiz/reset.
func (h Sessions) Reset(w http.ResponseWriter, r *http.Request) {
	rid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	v, err := s.TryAgain()
	h.writeQuiz(w, rid, v, err)
}

// NextModule handles POST /v1/me/sessions/{course}/next-module.
func (h Sessions) NextModule(w http.ResponseWriter, r *http.Request) {
	rid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	v, err := s.NextModule()
	if err != nil {
		writeError(w, h.Log, rid, err)
		return
	}
	api.WriteJSON(w, http.StatusAccepted, v)
}

func (h Sessions) writeQuiz(w http.ResponseWriter, rid string, v quiz.View, err error) {
	if err != nil {
		writeError(w, h.Log, rid, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, v)
}
