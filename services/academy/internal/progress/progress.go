// Package progress persists per-user course progress with upsert-by-natural-key semantics.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Record is the persisted progress of one user in one course.
type Record struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	CourseID       string     `json:"courseId"`
	Progress       int        `json:"progress"`
	Status         Status     `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	LastAccessedAt time.Time  `json:"lastAccessedAt"`
	CompletedAt    *time.Time `json:"completedAt"`
}

// Update is the change applied by Upsert.
type Update struct {
	Progress int    `json:"progress"`
	Status   Status `json:"status"`
}

// Stats aggregates progress across all users.
type Stats struct {
	Learners    int          `json:"learners"`
	Enrollments int          `json:"enrollments"`
	Completions int          `json:"completions"`
	Courses     []CourseStat `json:"courses"`
}

type CourseStat struct {
	CourseID        string  `json:"courseId"`
	Enrollments     int     `json:"enrollments"`
	Completions     int     `json:"completions"`
	AverageProgress float64 `json:"averageProgress"`
}

var (
	ErrNotFound  = errors.New("progress record not found")
	ErrDuplicate = errors.New("progress record already exists")
)

// Repository stores at most one Record per (UserID, CourseID).
type Repository interface {
	// Find returns ErrNotFound when no record exists for the pair.
	Find(ctx context.Context, userID, courseID string) (Record, error)
	Insert(ctx context.Context, r Record) error
	Update(ctx context.Context, r Record) error
	// ListByUser returns records ordered by LastAccessedAt desc. An empty status matches all.
	ListByUser(ctx context.Context, userID string, status Status, limit int) ([]Record, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
	Stats(ctx context.Context) (Stats, error)
}

// PersistenceError wraps a failed progress read or write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("progress %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
