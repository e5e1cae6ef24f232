// Package generation produces a lesson summary and a multiple-choice knowledge check from a transcript.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/drone-academy/services/academy/internal/format"
)

// Kind selects which piece of content a generation call produces.
type Kind string

const (
	KindSummary   Kind = "summary"
	KindQuestions Kind = "questions"
)

// OptionAlphabet lists the identifiers an answer option may carry.
const OptionAlphabet = "ABCDEF"

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	Prompt          string   `json:"prompt"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"correctOptionId"`
}

// Content is the generated material for one video.
type Content struct {
	Summary   string     `json:"summary"`
	Questions []Question `json:"questions"`
}

// Generator issues the two independent generation calls over a full transcript.
type Generator interface {
	Summary(ctx context.Context, transcript []format.Segment) (string, error)
	Questions(ctx context.Context, transcript []format.Segment) ([]Question, error)
}

// GenerationError reports a failed generation call.
type GenerationError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate %s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func generationErr(kind Kind, err error) error {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return err
	}
	return &GenerationError{Kind: kind, Message: err.Error(), Err: err}
}

var (
	errEmptyTranscript = errors.New("empty transcript")
	errEmptySummary    = errors.New("empty summary")
	errNoQuestions     = errors.New("no questions returned")
)

// Generate runs the single call for kind and returns the result in the matching field.
func Generate(ctx context.Context, g Generator, transcript []format.Segment, kind Kind) (Content, error) {
	switch kind {
	case KindSummary:
		s, err := g.Summary(ctx, transcript)
		return Content{Summary: s}, err
	case KindQuestions:
		qs, err := g.Questions(ctx, transcript)
		return Content{Questions: qs}, err
	default:
		return Content{}, &GenerationError{Kind: kind, Message: "unknown content type"}
	}
}

// Normalize upper-cases option ids and trims text in place.
func (q *Question) Normalize() {
	q.Prompt = strings.TrimSpace(q.Prompt)
	q.CorrectOptionID = strings.ToUpper(strings.TrimSpace(q.CorrectOptionID))
	for i := range q.Options {
		q.Options[i].ID = strings.ToUpper(strings.TrimSpace(q.Options[i].ID))
		q.Options[i].Text = strings.TrimSpace(q.Options[i].Text)
	}
}

// Validate checks that the question is answerable: a prompt, at least two
// options with unique ids from OptionAlphabet, and exactly one option whose id
// equals CorrectOptionID.
func (q Question) Validate() error {
	if q.Prompt == "" {
		return errors.New("question prompt is empty")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question %q has %d options, need at least 2", q.Prompt, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	matches := 0
	for _, o := range q.Options {
		if len(o.ID) != 1 || !strings.Contains(OptionAlphabet, o.ID) {
			return fmt.Errorf("question %q: option id %q not in %s", q.Prompt, o.ID, OptionAlphabet)
		}
		if seen[o.ID] {
			return fmt.Errorf("question %q: duplicate option id %q", q.Prompt, o.ID)
		}
		seen[o.ID] = true
		if o.Text == "" {
			return fmt.Errorf("question %q: option %s has no text", q.Prompt, o.ID)
		}
		if o.ID == q.CorrectOptionID {
			matches++
		}
	}
	if matches != 1 {
		return fmt.Errorf("question %q: correct option %q matches %d options", q.Prompt, q.CorrectOptionID, matches)
	}
	return nil
}

// HasOption reports whether id names one of the question's options.
func (q Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func validateAll(qs []Question) error {
	if len(qs) == 0 {
		return errNoQuestions
	}
	for i := range qs {
		qs[i].Normalize()
		if err := qs[i].Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}
