// Package course drives one learner through the modules of a course.
package course

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/analytics"
	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/coursecontent"
	"github.com/example/drone-academy/services/academy/internal/generation"
	"github.com/example/drone-academy/services/academy/internal/progress"
	"github.com/example/drone-academy/services/academy/internal/quiz"
)

var (
	ErrModuleRange     = errors.New("module number out of range")
	ErrNoActiveModule  = errors.New("no module selected")
	ErrContentNotReady = errors.New("knowledge check is not ready")
	ErrModuleLocked    = errors.New("pass the knowledge check to unlock the next module")
	ErrLastModule      = errors.New("already at the last module")
)

type ProgressWriter interface {
	Upsert(ctx context.Context, userID, courseID string, u progress.Update) (progress.Record, error)
}

// View is the learner-facing state of a session.
type View struct {
	CourseID      string                 `json:"courseId"`
	Source        catalog.Source         `json:"source"`
	Warning       string                 `json:"warning,omitempty"`
	Modules       []catalog.Module       `json:"modules"`
	Active        int                    `json:"activeModule"`
	Passed        []int                  `json:"passedModules"`
	Content       coursecontent.Snapshot `json:"content"`
	Quiz          *quiz.View             `json:"quiz,omitempty"`
	NextUnlocked  bool                   `json:"nextModuleUnlocked"`
	HasNextModule bool                   `json:"hasNextModule"`
}

// Outcome is returned by Next. Result is set when the step scored the quiz.
// PersistError carries a failed progress write; the result stands regardless.
type Outcome struct {
	Result       *quiz.Result     `json:"result,omitempty"`
	Progress     *progress.Record `json:"progress,omitempty"`
	PersistError string           `json:"persistError,omitempty"`
	Quiz         quiz.View        `json:"quiz"`
}

// Session is one learner in one course. Modules are numbered from 1; zero
// means none is selected yet.
type Session struct {
	userID   string
	courseID string
	mods     catalog.Modules

	content   *coursecontent.Controller
	progress  ProgressWriter
	threshold int
	events    analytics.Emitter
	log       *zap.Logger

	mu       sync.Mutex
	active   int
	passed   map[int]bool
	attempt  *quiz.Attempt
	lastUsed time.Time

	// attemptLoad is the content load the attempt's questions came from.
	attemptLoad uint64
}

func newSession(userID string, mods catalog.Modules, content *coursecontent.Controller, pw ProgressWriter, cfg Config, log *zap.Logger) *Session {
	return &Session{
		userID:    userID,
		courseID:  mods.CourseID,
		mods:      mods,
		content:   content,
		progress:  pw,
		threshold: cfg.PassThreshold,
		events:    cfg.Events,
		log:       log.With(zap.String("user_id", userID), zap.String("course_id", mods.CourseID)),
		passed:    map[int]bool{},
	}
}

// SelectModule makes module n active and starts loading its content.
func (s *Session) SelectModule(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(n)
}

func (s *Session) selectLocked(n int) error {
	if n < 1 || n > len(s.mods.Modules) {
		return ErrModuleRange
	}
	if n != s.active {
		s.attempt = nil
	}
	s.active = n
	s.content.Load(s.mods.Modules[n-1].VideoID)
	return nil
}

// Retry re-runs the failed parts of the active module's content load.
func (s *Session) Retry() error {
	return s.content.Retry()
}

// WaitContent blocks until the active module's content load settles.
func (s *Session) WaitContent(ctx context.Context) error {
	return s.content.Wait(ctx)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		CourseID:      s.courseID,
		Source:        s.mods.Source,
		Warning:       s.mods.Warning,
		Modules:       s.mods.Modules,
		Active:        s.active,
		Passed:        []int{},
		Content:       s.content.Snapshot(),
		HasNextModule: s.active > 0 && s.active < len(s.mods.Modules),
	}
	for i := 1; i <= len(s.mods.Modules); i++ {
		if s.passed[i] {
			v.Passed = append(v.Passed, i)
		}
	}
	v.NextUnlocked = v.HasNextModule && s.passed[s.active]
	if a := s.attemptLocked(v.Content); a != nil {
		qv := a.State()
		v.Quiz = &qv
	}
	if v.Quiz == nil || v.Quiz.Phase != quiz.PhaseScored {
		v.Content.Questions = redact(v.Content.Questions)
	}
	return v
}

// redact hides the correct options until the quiz is scored.
func redact(qs []generation.Question) []generation.Question {
	if qs == nil {
		return nil
	}
	out := make([]generation.Question, len(qs))
	for i, q := range qs {
		q.CorrectOptionID = ""
		out[i] = q
	}
	return out
}

// attemptLocked returns the attempt for the active module, creating it once
// the content is ready. An attempt is only valid for the load that produced
// its questions; questions kept from a failed load are not quizzable until a
// retry completes.
func (s *Session) attemptLocked(snap coursecontent.Snapshot) *quiz.Attempt {
	if s.active == 0 || snap.State != coursecontent.StateReady || len(snap.Questions) == 0 {
		return nil
	}
	if snap.VideoID != s.mods.Modules[s.active-1].VideoID {
		return nil
	}
	if s.attempt != nil && s.attemptLoad == snap.Load {
		return s.attempt
	}
	a, err := quiz.NewAttempt(snap.Questions, s.threshold)
	if err != nil {
		return nil
	}
	s.attempt = a
	s.attemptLoad = snap.Load
	return a
}

func (s *Session) currentAttempt() (*quiz.Attempt, error) {
	if s.active == 0 {
		return nil, ErrNoActiveModule
	}
	a := s.attemptLocked(s.content.Snapshot())
	if a == nil {
		return nil, ErrContentNotReady
	}
	return a, nil
}

func (s *Session) Answer(optionID string) (quiz.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.currentAttempt()
	if err != nil {
		return quiz.View{}, err
	}
	if err := a.Select(strings.ToUpper(strings.TrimSpace(optionID))); err != nil {
		return quiz.View{}, err
	}
	return a.State(), nil
}

func (s *Session) Previous() (quiz.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.currentAttempt()
	if err != nil {
		return quiz.View{}, err
	}
	if err := a.Previous(); err != nil {
		return quiz.View{}, err
	}
	return a.State(), nil
}

// TryAgain clears the attempt. The generated questions are kept.
func (s *Session) TryAgain() (quiz.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.currentAttempt()
	if err != nil {
		return quiz.View{}, err
	}
	a.Reset()
	return a.State(), nil
}

// Next advances the quiz. When that scores it, the result is written to the
// course progress; a failed write is reported in Outcome.PersistError.
func (s *Session) Next(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	a, err := s.currentAttempt()
	if err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	r, err := a.Next()
	if err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	out := Outcome{Result: r, Quiz: a.State()}
	if r == nil {
		s.mu.Unlock()
		return out, nil
	}
	module := s.active
	videoID := s.mods.Modules[module-1].VideoID
	if r.Passed {
		s.passed[module] = true
	}
	s.mu.Unlock()

	if s.events != nil {
		s.events.Publish(analytics.SubjectKnowledgeCheckScored, "knowledge_check_scored", s.userID, map[string]any{
			"course_id": s.courseID,
			"module":    module,
			"video_id":  videoID,
			"score":     r.Score,
			"passed":    r.Passed,
		})
	}

	rec, err := s.progress.Upsert(ctx, s.userID, s.courseID, quiz.ProgressUpdate(*r))
	if err != nil {
		s.log.Warn("knowledge check progress not saved", zap.Int("module", module), zap.Error(err))
		out.PersistError = "Your score was recorded here but could not be saved to your progress."
		return out, nil
	}
	out.Progress = &rec
	return out, nil
}

// NextModule moves to the following module once the active one was passed.
func (s *Session) NextModule() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == 0 {
		return View{}, ErrNoActiveModule
	}
	if s.active >= len(s.mods.Modules) {
		return View{}, ErrLastModule
	}
	if !s.passed[s.active] {
		return View{}, ErrModuleLocked
	}
	if err := s.selectLocked(s.active + 1); err != nil {
		return View{}, err
	}
	return s.viewLocked(), nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) close() { s.content.Close() }
