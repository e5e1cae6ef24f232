// Package analytics provides a fire-and-forget NATS publisher for learning events.
package analytics

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every analytics event type.
const (
	SubjectCourseEnrolled       = "analytics.academy.course_enrolled"
	SubjectKnowledgeCheckScored = "analytics.academy.knowledge_check_scored"
	SubjectCourseCompleted      = "analytics.academy.course_completed"
	SubjectAssessmentSubmitted  = "analytics.academy.assessment_submitted"
	SubjectCertificateIssued    = "analytics.academy.certificate_issued"
)

// Event is the canonical envelope sent to all analytics.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Emitter is what domain services depend on.
type Emitter interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

// Publisher publishes analytics events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub (useful in tests and services without NATS).
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log}
}

// Publish sends an analytics event asynchronously (fire-and-forget).
// Failures are logged as warnings and never surface to the caller.
// The publisher is safe to call with a nil receiver.
func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	data, err := json.Marshal(NewEvent(eventName, userID, props))
	if err != nil {
		p.log.Warn("analytics: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("analytics: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// NewEvent builds an envelope stamped with a fresh id and the current time.
func NewEvent(eventName, userID string, props map[string]any) Event {
	return Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
}

// Recorder captures published events in memory. Used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// RecordedEvent is one captured Publish call.
type RecordedEvent struct {
	Subject string
	Event   Event
}

func (r *Recorder) Publish(subject, eventName, userID string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Subject: subject, Event: NewEvent(eventName, userID, props)})
}

// Events returns a copy of everything captured so far.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}
