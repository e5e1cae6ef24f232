package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/analytics"
)

// InvalidateSubject carries cache keys whose cached views must be re-fetched.
const InvalidateSubject = "academy.cache.invalidate"

// CacheKey is the invalidation key of a user's course list.
func CacheKey(userID string) string { return "courses:" + userID }

// Invalidator signals dependent views after a progress write.
type Invalidator interface {
	Invalidate(key string)
}

// NATSInvalidator publishes keys on InvalidateSubject. A nil conn is a no-op.
type NATSInvalidator struct {
	nc  *nats.Conn
	log *zap.Logger
}

func NewNATSInvalidator(nc *nats.Conn, log *zap.Logger) *NATSInvalidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &NATSInvalidator{nc: nc, log: log}
}

func (n *NATSInvalidator) Invalidate(key string) {
	if n == nil || n.nc == nil {
		return
	}
	if err := n.nc.Publish(InvalidateSubject, []byte(key)); err != nil {
		n.log.Warn("cache invalidation publish failed", zap.String("key", key), zap.Error(err))
	}
}

type Service struct {
	repo        Repository
	invalidator Invalidator
	events      analytics.Emitter
	log         *zap.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithInvalidator(i Invalidator) Option { return func(s *Service) { s.invalidator = i } }

func WithEmitter(e analytics.Emitter) Option { return func(s *Service) { s.events = e } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, log: zap.NewNop(), now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Upsert looks up the (userID, courseID) record and updates it, or inserts a
// new one. CompletedAt is set to now when the status is completed and cleared
// otherwise. An insert that loses a race with a concurrent first write falls
// back to updating the record that won.
func (s *Service) Upsert(ctx context.Context, userID, courseID string, u Update) (Record, error) {
	if userID == "" || courseID == "" {
		return Record{}, &PersistenceError{Op: "upsert", Err: errors.New("user and course are required")}
	}
	if !u.Status.Valid() {
		return Record{}, &PersistenceError{Op: "upsert", Err: fmt.Errorf("invalid status %q", u.Status)}
	}
	u.Progress = clamp(u.Progress)
	now := s.now()

	rec, err := s.repo.Find(ctx, userID, courseID)
	switch {
	case err == nil:
		if rec, err = s.update(ctx, rec, u, now); err != nil {
			return Record{}, err
		}
	case errors.Is(err, ErrNotFound):
		rec = Record{
			ID:             uuid.NewString(),
			UserID:         userID,
			CourseID:       courseID,
			Progress:       u.Progress,
			Status:         u.Status,
			StartedAt:      now,
			LastAccessedAt: now,
			CompletedAt:    completedAt(u.Status, now),
		}
		err := s.repo.Insert(ctx, rec)
		if errors.Is(err, ErrDuplicate) {
			if rec, err = s.repo.Find(ctx, userID, courseID); err != nil {
				return Record{}, s.fail("lookup", userID, courseID, err)
			}
			if rec, err = s.update(ctx, rec, u, now); err != nil {
				return Record{}, err
			}
			break
		}
		if err != nil {
			return Record{}, s.fail("insert", userID, courseID, err)
		}
		s.emit(analytics.SubjectCourseEnrolled, "course_enrolled", rec)
		if rec.Status == StatusCompleted {
			s.emitCompleted(rec)
		}
	default:
		return Record{}, s.fail("lookup", userID, courseID, err)
	}

	s.invalidate(userID)
	return rec, nil
}

func (s *Service) update(ctx context.Context, rec Record, u Update, now time.Time) (Record, error) {
	wasCompleted := rec.Status == StatusCompleted
	rec.Progress = u.Progress
	rec.Status = u.Status
	rec.LastAccessedAt = now
	rec.CompletedAt = completedAt(u.Status, now)
	if err := s.repo.Update(ctx, rec); err != nil {
		return Record{}, s.fail("update", rec.UserID, rec.CourseID, err)
	}
	if !wasCompleted && rec.Status == StatusCompleted {
		s.emitCompleted(rec)
	}
	return rec, nil
}

// Enroll starts a course for the user unless a record already exists.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (Record, bool, error) {
	rec, err := s.repo.Find(ctx, userID, courseID)
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, false, s.fail("lookup", userID, courseID, err)
	}
	rec, err = s.Upsert(ctx, userID, courseID, Update{Progress: 0, Status: StatusInProgress})
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *Service) Get(ctx context.Context, userID, courseID string) (Record, error) {
	rec, err := s.repo.Find(ctx, userID, courseID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Record{}, s.fail("lookup", userID, courseID, err)
	}
	return rec, err
}

func (s *Service) List(ctx context.Context, userID string, status Status, limit int) ([]Record, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	out, err := s.repo.ListByUser(ctx, userID, status, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return out, nil
}

// Reset deletes all of the user's progress.
func (s *Service) Reset(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, &PersistenceError{Op: "reset", Err: err}
	}
	s.invalidate(userID)
	return n, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, &PersistenceError{Op: "stats", Err: err}
	}
	return st, nil
}

func (s *Service) fail(op, userID, courseID string, err error) error {
	s.log.Warn("progress write failed",
		zap.String("op", op),
		zap.String("user_id", userID),
		zap.String("course_id", courseID),
		zap.Error(err),
	)
	return &PersistenceError{Op: op, Err: err}
}

func (s *Service) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(CacheKey(userID))
	}
}

func (s *Service) emitCompleted(rec Record) {
	s.emit(analytics.SubjectCourseCompleted, "course_completed", rec)
}

func (s *Service) emit(subject, name string, rec Record) {
	if s.events == nil {
		return
	}
	s.events.Publish(subject, name, rec.UserID, map[string]any{
		"course_id": rec.CourseID,
		"progress":  rec.Progress,
		"status":    string(rec.Status),
	})
}

func completedAt(status Status, now time.Time) *time.Time {
	if status != StatusCompleted {
		return nil
	}
	t := now
	return &t
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
