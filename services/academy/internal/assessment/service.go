package assessment

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/analytics"
	"github.com/example/drone-academy/internal/platform/signing"
)

// Attempt is one timed run of an assessment. Answers map question id to option index.
type Attempt struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	AssessmentID string         `json:"assessmentId"`
	StartedAt    time.Time      `json:"startedAt"`
	Deadline     time.Time      `json:"deadline"`
	Answers      map[string]int `json:"answers"`
	Result       *Result        `json:"result,omitempty"`
}

type Review struct {
	QuestionID  string `json:"questionId"`
	Selected    *int   `json:"selected"`
	Correct     int    `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

type Result struct {
	Score        int       `json:"score"`
	Total        int       `json:"totalQuestions"`
	Correct      int       `json:"correctAnswers"`
	Incorrect    int       `json:"incorrectAnswers"`
	Unanswered   int       `json:"unanswered"`
	PassingScore int       `json:"passingScore"`
	Passed       bool      `json:"passed"`
	TimedOut     bool      `json:"timedOut"`
	SubmittedAt  time.Time `json:"submittedAt"`
	Review       []Review  `json:"review"`
}

// Grade scores answers against a. Unknown question ids are ignored.
func Grade(a Assessment, answers map[string]int) Result {
	r := Result{Total: len(a.Questions), PassingScore: a.PassingScore, Review: make([]Review, 0, len(a.Questions))}
	for _, q := range a.Questions {
		rv := Review{QuestionID: q.ID, Correct: q.CorrectOption, Explanation: q.Explanation}
		sel, ok := answers[q.ID]
		switch {
		case !ok:
			r.Unanswered++
		case sel == q.CorrectOption:
			r.Correct++
		default:
			r.Incorrect++
		}
		if ok {
			s := sel
			rv.Selected = &s
		}
		r.Review = append(r.Review, rv)
	}
	if r.Total > 0 {
		r.Score = int(math.Round(100 * float64(r.Correct) / float64(r.Total)))
	}
	r.Passed = r.Score >= a.PassingScore
	return r
}

type Service struct {
	catalog *Catalog
	certs   CertificateStore
	signer  *signing.Signer
	events  analytics.Emitter
	log     *zap.Logger

	// VerifyBaseURL prefixes certificate verification links.
	VerifyBaseURL string
	LinkTTL       time.Duration

	now func() time.Time

	mu       sync.Mutex
	attempts map[string]*Attempt
}

func NewService(catalog *Catalog, certs CertificateStore, signer *signing.Signer, events analytics.Emitter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		catalog:  catalog,
		certs:    certs,
		signer:   signer,
		events:   events,
		log:      log,
		LinkTTL:  365 * 24 * time.Hour,
		now:      func() time.Time { return time.Now().UTC() },
		attempts: make(map[string]*Attempt),
	}
}

func (s *Service) Catalog() *Catalog { return s.catalog }

func (s *Service) Start(_ context.Context, userID, assessmentID string) (Attempt, error) {
	a, err := s.catalog.ByID(assessmentID)
	if err != nil {
		return Attempt{}, err
	}
	now := s.now()
	at := &Attempt{
		ID:           uuid.NewString(),
		UserID:       userID,
		AssessmentID: a.ID,
		StartedAt:    now,
		Deadline:     now.Add(time.Duration(a.DurationMinutes) * time.Minute),
		Answers:      map[string]int{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.attempts[at.ID] = at
	return copyAttempt(at), nil
}

func (s *Service) Get(_ context.Context, userID, attemptID string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, err := s.attemptLocked(userID, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	return copyAttempt(at), nil
}

// Answer records option for questionID. After the deadline the attempt is
// submitted as it stands and ErrDeadlinePassed is returned.
func (s *Service) Answer(ctx context.Context, userID, attemptID, questionID string, option int) error {
	s.mu.Lock()
	at, err := s.attemptLocked(userID, attemptID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if at.Result != nil {
		s.mu.Unlock()
		return ErrSubmitted
	}
	a, err := s.catalog.ByID(at.AssessmentID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.now().After(at.Deadline) {
		s.finishLocked(at, a, true)
		s.mu.Unlock()
		s.emitSubmitted(at)
		return ErrDeadlinePassed
	}
	q, ok := a.question(questionID)
	if !ok {
		s.mu.Unlock()
		return ErrQuestionUnknown
	}
	if option < 0 || option >= len(q.Options) {
		s.mu.Unlock()
		return ErrOptionRange
	}
	at.Answers[questionID] = option
	s.mu.Unlock()
	return nil
}

// Submit grades the attempt. Submitting again returns the stored result.
func (s *Service) Submit(_ context.Context, userID, attemptID string) (Result, error) {
	s.mu.Lock()
	at, err := s.attemptLocked(userID, attemptID)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	if at.Result != nil {
		r := *at.Result
		s.mu.Unlock()
		return r, nil
	}
	a, err := s.catalog.ByID(at.AssessmentID)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	s.finishLocked(at, a, s.now().After(at.Deadline))
	r := *at.Result
	s.mu.Unlock()

	s.emitSubmitted(at)
	return r, nil
}

func (s *Service) finishLocked(at *Attempt, a Assessment, timedOut bool) {
	r := Grade(a, at.Answers)
	r.TimedOut = timedOut
	r.SubmittedAt = s.now()
	at.Result = &r
}

// IssueCertificate creates the certificate for a passed attempt, or returns
// the one already issued for it.
func (s *Service) IssueCertificate(ctx context.Context, userID, attemptID string, h Holder) (Certificate, error) {
	at, err := s.Get(ctx, userID, attemptID)
	if err != nil {
		return Certificate{}, err
	}
	if at.Result == nil {
		return Certificate{}, ErrNotSubmitted
	}
	if !at.Result.Passed {
		return Certificate{}, ErrNotPassed
	}
	if !h.valid() {
		return Certificate{}, ErrHolderInvalid
	}
	if existing, err := s.certs.ByAttempt(ctx, attemptID); err == nil {
		return s.withLink(existing), nil
	} else if !errors.Is(err, ErrCertificateNotFound) {
		return Certificate{}, err
	}

	a, err := s.catalog.ByID(at.AssessmentID)
	if err != nil {
		return Certificate{}, err
	}
	c := Certificate{
		ID:              uuid.NewString(),
		Code:            newCode(),
		UserID:          userID,
		AttemptID:       attemptID,
		AssessmentID:    a.ID,
		AssessmentTitle: a.Title,
		Holder: Holder{
			FullName:    strings.TrimSpace(h.FullName),
			Designation: strings.TrimSpace(h.Designation),
			Email:       strings.TrimSpace(h.Email),
		},
		Score:    at.Result.Score,
		IssuedAt: s.now(),
	}
	if err := s.certs.Insert(ctx, c); err != nil {
		return Certificate{}, err
	}
	s.log.Info("certificate issued", zap.String("certificate_id", c.ID), zap.String("user_id", userID), zap.String("assessment_id", a.ID))
	if s.events != nil {
		s.events.Publish(analytics.SubjectCertificateIssued, "certificate_issued", userID, map[string]any{
			"assessment_id":  a.ID,
			"certificate_id": c.ID,
			"score":          c.Score,
		})
	}
	return s.withLink(c), nil
}

func (s *Service) Certificates(ctx context.Context, userID string) ([]Certificate, error) {
	list, err := s.certs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = s.withLink(list[i])
	}
	return list, nil
}

// Verify checks a signed verification link and returns the certificate it names.
func (s *Service) Verify(ctx context.Context, certID string, signed signing.Signed) (Certificate, error) {
	if s.signer == nil || signed.Resource != certID || !s.signer.Verify(signed) {
		return Certificate{}, ErrCertificateNotFound
	}
	c, err := s.certs.ByID(ctx, certID)
	if err != nil {
		return Certificate{}, err
	}
	if c.UserID != signed.Subject {
		return Certificate{}, ErrCertificateNotFound
	}
	return c, nil
}

func (s *Service) CertificateCount(ctx context.Context) (int, error) {
	return s.certs.Count(ctx)
}

func (s *Service) withLink(c Certificate) Certificate {
	if s.signer == nil || s.VerifyBaseURL == "" {
		return c
	}
	signed := s.signer.Sign(c.ID, c.UserID, s.now().Add(s.LinkTTL))
	u, err := signing.BuildSignedURL(strings.TrimRight(s.VerifyBaseURL, "/")+"/v1/certificates/"+c.ID+"/verify", signed)
	if err != nil {
		s.log.Warn("build verify url", zap.Error(err))
		return c
	}
	c.VerifyURL = u
	return c
}

func (s *Service) emitSubmitted(at *Attempt) {
	if s.events == nil || at.Result == nil {
		return
	}
	s.events.Publish(analytics.SubjectAssessmentSubmitted, "assessment_submitted", at.UserID, map[string]any{
		"assessment_id": at.AssessmentID,
		"score":         at.Result.Score,
		"passed":        at.Result.Passed,
		"timed_out":     at.Result.TimedOut,
	})
}

func (s *Service) attemptLocked(userID, attemptID string) (*Attempt, error) {
	at, ok := s.attempts[attemptID]
	if !ok || at.UserID != userID {
		return nil, ErrAttemptNotFound
	}
	return at, nil
}

// pruneLocked drops attempts that ended more than a day ago.
func (s *Service) pruneLocked(now time.Time) {
	for id, at := range s.attempts {
		if now.Sub(at.Deadline) > 24*time.Hour {
			delete(s.attempts, id)
		}
	}
}

func copyAttempt(at *Attempt) Attempt {
	out := *at
	out.Answers = make(map[string]int, len(at.Answers))
	for k, v := range at.Answers {
		out.Answers[k] = v
	}
	if at.Result != nil {
		r := *at.Result
		out.Result = &r
	}
	return out
}
