// Package assessment runs timed certification assessments and issues signed certificates.
package assessment

import (
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("assessment not found")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrQuestionUnknown = errors.New("question does not belong to the assessment")
	ErrOptionRange     = errors.New("option out of range")
	ErrSubmitted       = errors.New("attempt already submitted")
	ErrDeadlinePassed  = errors.New("assessment time is up")
	ErrNotSubmitted    = errors.New("attempt not submitted")
	ErrNotPassed       = errors.New("attempt did not reach the passing score")
	ErrHolderInvalid   = errors.New("full name, designation and email are required")
)

type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"-"`
	Explanation   string   `json:"-"`
}

type Assessment struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration"`
	TotalQuestions  int        `json:"totalQuestions"`
	PassingScore    int        `json:"passingScore"`
	Level           string     `json:"level"`
	RelatedCourses  []string   `json:"relatedCourses"`
	Questions       []Question `json:"questions,omitempty"`
}

func (a Assessment) question(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Summary drops the question bank for list views.
func (a Assessment) Summary() Assessment {
	a.Questions = nil
	return a
}

type Catalog struct {
	items []Assessment
}

func NewCatalog(items []Assessment) *Catalog {
	out := make([]Assessment, len(items))
	for i, a := range items {
		if len(a.Questions) == 0 {
			a.Questions = sharedQuestions
		}
		out[i] = a
	}
	return &Catalog{items: out}
}

func DefaultCatalog() *Catalog { return NewCatalog(seedAssessments) }

// List filters by level and a case-insensitive title/description query.
func (c *Catalog) List(level, query string) []Assessment {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Assessment{}
	for _, a := range c.items {
		if level != "" && !strings.EqualFold(a.Level, level) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Title), q) && !strings.Contains(strings.ToLower(a.Description), q) {
			continue
		}
		out = append(out, a.Summary())
	}
	return out
}

func (c *Catalog) ByID(id string) (Assessment, error) {
	for _, a := range c.items {
		if a.ID == id || a.Slug == id {
			return a, nil
		}
	}
	return Assessment{}, ErrNotFound
}
