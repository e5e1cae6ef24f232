package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/api"
	"github.com/example/drone-academy/internal/platform/auth"
	"github.com/example/drone-academy/services/academy/internal/assessment"
	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/course"
	"github.com/example/drone-academy/services/academy/internal/coursecontent"
	"github.com/example/drone-academy/services/academy/internal/progress"
	"github.com/example/drone-academy/services/academy/internal/quiz"
	"github.com/example/drone-academy/services/academy/internal/testimonials"
	"github.com/example/drone-academy/services/academy/internal/watchlist"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{auth.ErrNotAdmin, http.StatusForbidden, "ADMIN_REQUIRED"},
	{catalog.ErrCourseNotFound, http.StatusNotFound, "COURSE_NOT_FOUND"},
	{watchlist.ErrUnknownCourse, http.StatusNotFound, "COURSE_NOT_FOUND"},
	{progress.ErrNotFound, http.StatusNotFound, "PROGRESS_NOT_FOUND"},
	{watchlist.ErrExists, http.StatusConflict, "ALREADY_IN_WATCHLIST"},
	{watchlist.ErrNotFound, http.StatusNotFound, "NOT_IN_WATCHLIST"},
	{testimonials.ErrNotFound, http.StatusNotFound, "TESTIMONIAL_NOT_FOUND"},

	{assessment.ErrNotFound, http.StatusNotFound, "ASSESSMENT_NOT_FOUND"},
	{assessment.ErrAttemptNotFound, http.StatusNotFound, "ATTEMPT_NOT_FOUND"},
	{assessment.ErrCertificateNotFound, http.StatusNotFound, "CERTIFICATE_NOT_FOUND"},
	{assessment.ErrQuestionUnknown, http.StatusBadRequest, "QUESTION_UNKNOWN"},
	{assessment.ErrOptionRange, http.StatusBadRequest, "OPTION_OUT_OF_RANGE"},
	{assessment.ErrHolderInvalid, http.StatusBadRequest, "HOLDER_INVALID"},
	{assessment.ErrSubmitted, http.StatusConflict, "ATTEMPT_SUBMITTED"},
	{assessment.ErrDeadlinePassed, http.StatusConflict, "DEADLINE_PASSED"},
	{assessment.ErrNotSubmitted, http.StatusConflict, "ATTEMPT_NOT_SUBMITTED"},
	{assessment.ErrNotPassed, http.StatusForbidden, "ATTEMPT_NOT_PASSED"},

	{course.ErrModuleRange, http.StatusNotFound, "MODULE_NOT_FOUND"},
	{course.ErrNoActiveModule, http.StatusConflict, "NO_ACTIVE_MODULE"},
	{course.ErrContentNotReady, http.StatusConflict, "CONTENT_NOT_READY"},
	{course.ErrModuleLocked, http.StatusConflict, "MODULE_LOCKED"},
	{course.ErrLastModule, http.StatusConflict, "LAST_MODULE"},
	{coursecontent.ErrNotRetryable, http.StatusConflict, "NOT_RETRYABLE"},
	{quiz.ErrNoAnswer, http.StatusBadRequest, "NO_ANSWER"},
	{quiz.ErrUnknownOption, http.StatusBadRequest, "UNKNOWN_OPTION"},
	{quiz.ErrScored, http.StatusConflict, "QUIZ_SCORED"},
	{quiz.ErrFirstQuestion, http.StatusConflict, "FIRST_QUESTION"},
}

// writeError maps a domain error onto the API error envelope. Unknown errors
// are logged and reported as 500.
func writeError(w http.ResponseWriter, log *zap.Logger, rid string, err error) {
	var verr *testimonials.ValidationError
	if errors.As(err, &verr) {
		details := make(map[string]any, len(verr.Fields))
		for k, v := range verr.Fields {
			details[k] = v
		}
		api.BadRequest(w, "VALIDATION_FAILED", "invalid testimonial", rid, details)
		return
	}
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			api.WriteError(w, m.status, m.code, m.target.Error(), rid, nil)
			return
		}
	}
	var perr *progress.PersistenceError
	if errors.As(err, &perr) {
		log.Error("progress store failed", zap.String("request_id", rid), zap.Error(err))
		api.Unavailable(w, "PROGRESS_UNAVAILABLE", "progress could not be saved", rid)
		return
	}
	log.Error("request failed", zap.String("request_id", rid), zap.Error(err))
	api.Internal(w, rid)
}
