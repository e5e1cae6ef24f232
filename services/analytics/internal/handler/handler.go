// Package handler turns academy learning events into PostHog captures.
package handler

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/analytics"
)

// Capturer is the PostHog surface the dispatcher needs.
type Capturer interface {
	Capture(distinctID, event, courseID string, props map[string]any)
}

// Dispatcher routes incoming events to the correct capture call.
type Dispatcher struct {
	ph  Capturer
	log *zap.Logger
}

func New(ph Capturer, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{ph: ph, log: log}
}

// Dispatch handles one message. Unknown subjects and malformed payloads are
// logged and dropped; the caller acks either way so they are not replayed.
func (d *Dispatcher) Dispatch(subject string, data []byte) {
	var ev analytics.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		d.log.Error("analytics: unmarshal message", zap.String("subject", subject), zap.Error(err))
		return
	}
	if ev.UserID == "" {
		d.log.Debug("analytics: event without user", zap.String("subject", subject))
		return
	}

	switch subject {
	case analytics.SubjectCourseEnrolled:
		d.courseEvent(ev, "course_enrolled", "progress")
	case analytics.SubjectCourseCompleted:
		d.courseEvent(ev, "course_completed", "progress")
	case analytics.SubjectKnowledgeCheckScored:
		d.courseEvent(ev, "knowledge_check_scored", "module", "video_id", "score", "passed")
	case analytics.SubjectAssessmentSubmitted:
		d.ph.Capture(ev.UserID, "assessment_submitted", "", pick(ev.Properties, "assessment_id", "score", "passed", "timed_out"))
	case analytics.SubjectCertificateIssued:
		d.ph.Capture(ev.UserID, "certificate_issued", "", pick(ev.Properties, "assessment_id", "certificate_id", "score"))
	default:
		d.log.Debug("analytics: unhandled subject", zap.String("subject", subject))
	}
}

func (d *Dispatcher) courseEvent(ev analytics.Event, name string, keys ...string) {
	courseID, _ := ev.Properties["course_id"].(string)
	props := pick(ev.Properties, keys...)
	props["course_id"] = courseID
	d.ph.Capture(ev.UserID, name, courseID, props)
}

// pick copies the listed keys that are present in src.
func pick(src map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}
	return out
}
