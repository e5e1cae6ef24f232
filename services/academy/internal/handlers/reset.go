package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/services/academy/internal/course"
	"github.com/example/drone-academy/services/academy/internal/progress"
	"github.com/example/drone-academy/services/academy/internal/watchlist"
)

// ResetMyData handles DELETE /v1/me/data: the caller's watchlist, course
// progress and open course sessions are removed.
func ResetMyData(wl *watchlist.Service, ps *progress.Service, sessions *course.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid, id, ok := caller(w, r)
		if !ok {
			return
		}
		removed, err := wl.Clear(r.Context(), id.UserID)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		reset, err := ps.Reset(r.Context(), id.UserID)
		if err != nil {
			writeError(w, log, rid, err)
			return
		}
		if sessions != nil {
			sessions.Drop(id.UserID)
		}
		log.Info("learner data reset",
			zap.String("user_id", id.UserID),
			zap.Int("watchlist", removed),
			zap.Int("progress", reset),
		)
		api.WriteJSON(w, http.StatusOK, map[string]any{"watchlistRemoved": removed, "progressRemoved": reset})
	}
}
