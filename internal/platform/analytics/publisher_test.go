package analytics

import "testing"

func TestPublisher_NilSafe(t *testing.T) {
	var p *Publisher
	p.Publish(SubjectCourseEnrolled, "course_enrolled", "u1", nil)
	New(nil, nil).Publish(SubjectCourseEnrolled, "course_enrolled", "u1", nil)
}

func TestRecorder_CapturesEnvelope(t *testing.T) {
	var r Recorder
	r.Publish(SubjectKnowledgeCheckScored, "knowledge_check_scored", "u1", map[string]any{"score": 80})

	events := r.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Subject != SubjectKnowledgeCheckScored || ev.Event.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Event.EventID == "" || ev.Event.OccurredAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", ev.Event)
	}
}
