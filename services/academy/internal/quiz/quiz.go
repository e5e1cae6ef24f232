// Package quiz tracks answers to a generated knowledge check and scores the attempt.
package quiz

import (
	"errors"
	"math"

	"github.com/example/drone-academy/services/academy/internal/generation"
	"github.com/example/drone-academy/services/academy/internal/progress"
)

// DefaultThreshold is the knowledge-check pass mark. Assessments carry their own.
const DefaultThreshold = 70

var (
	ErrNoQuestions   = errors.New("quiz has no questions")
	ErrNoAnswer      = errors.New("current question has no answer")
	ErrUnknownOption = errors.New("option does not belong to the current question")
	ErrScored        = errors.New("quiz already scored")
	ErrFirstQuestion = errors.New("already at the first question")
)

type Phase string

const (
	PhaseAnswering Phase = "answering"
	PhaseScored    Phase = "scored"
)

type Result struct {
	Score     int  `json:"score"`
	Correct   int  `json:"correct"`
	Total     int  `json:"total"`
	Passed    bool `json:"passed"`
	Threshold int  `json:"threshold"`
}

// View is a read-only copy of the attempt.
type View struct {
	Phase    Phase          `json:"phase"`
	Current  int            `json:"current"`
	Total    int            `json:"total"`
	Selected map[int]string `json:"selected"`
	Result   *Result        `json:"result,omitempty"`
}

// Attempt is one pass through a list of questions. It is not safe for
// concurrent use; callers serialize access.
type Attempt struct {
	questions []generation.Question
	threshold int
	selected  map[int]string
	current   int
	result    *Result
}

// NewAttempt starts an attempt. A non-positive threshold means DefaultThreshold.
func NewAttempt(questions []generation.Question, threshold int) (*Attempt, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Attempt{questions: questions, threshold: threshold, selected: make(map[int]string)}, nil
}

// Select records optionID for the current question, replacing any earlier choice.
func (a *Attempt) Select(optionID string) error {
	if a.result != nil {
		return ErrScored
	}
	if !a.questions[a.current].HasOption(optionID) {
		return ErrUnknownOption
	}
	a.selected[a.current] = optionID
	return nil
}

func (a *Attempt) CanAdvance() bool {
	if a.result != nil {
		return false
	}
	_, ok := a.selected[a.current]
	return ok
}

// Next moves to the following question, or scores the attempt on the last one.
// The returned Result is non-nil only when this call scored the attempt.
func (a *Attempt) Next() (*Result, error) {
	if a.result != nil {
		return nil, ErrScored
	}
	if !a.CanAdvance() {
		return nil, ErrNoAnswer
	}
	if a.current < len(a.questions)-1 {
		a.current++
		return nil, nil
	}
	r := Score(a.questions, a.selected, a.threshold)
	a.result = &r
	return &r, nil
}

func (a *Attempt) Previous() error {
	if a.result != nil {
		return ErrScored
	}
	if a.current == 0 {
		return ErrFirstQuestion
	}
	a.current--
	return nil
}

// Reset clears answers and the result. The questions are kept.
func (a *Attempt) Reset() {
	a.selected = make(map[int]string)
	a.current = 0
	a.result = nil
}

func (a *Attempt) Questions() []generation.Question { return a.questions }

func (a *Attempt) State() View {
	v := View{
		Phase:    PhaseAnswering,
		Current:  a.current,
		Total:    len(a.questions),
		Selected: make(map[int]string, len(a.selected)),
	}
	for k, s := range a.selected {
		v.Selected[k] = s
	}
	if a.result != nil {
		r := *a.result
		v.Phase = PhaseScored
		v.Result = &r
	}
	return v
}

// Score grades selections keyed by question index.
func Score(questions []generation.Question, selected map[int]string, threshold int) Result {
	r := Result{Total: len(questions), Threshold: threshold}
	for i, q := range questions {
		if s, ok := selected[i]; ok && s == q.CorrectOptionID {
			r.Correct++
		}
	}
	if r.Total > 0 {
		r.Score = int(math.Round(100 * float64(r.Correct) / float64(r.Total)))
	}
	r.Passed = Passed(r.Score, threshold)
	return r
}

func Passed(score, threshold int) bool { return score >= threshold }

// ProgressUpdate maps a scored knowledge check onto a course progress write.
func ProgressUpdate(r Result) progress.Update {
	u := progress.Update{Progress: min(100, r.Score), Status: progress.StatusInProgress}
	if r.Passed {
		u.Status = progress.StatusCompleted
	}
	return u
}
