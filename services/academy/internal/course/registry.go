package course

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/analytics"
	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/coursecontent"
	"github.com/example/drone-academy/services/academy/internal/quiz"
)

type ModuleSource interface {
	Modules(ctx context.Context, courseID string) (catalog.Modules, error)
}

// ContentFactory builds the content controller of a new session.
type ContentFactory func() *coursecontent.Controller

type Config struct {
	PassThreshold int
	IdleTTL       time.Duration
	// Events receives knowledge_check_scored; nil disables it.
	Events analytics.Emitter
}

// Registry keeps one Session per (user, course) and closes idle ones.
type Registry struct {
	modules  ModuleSource
	content  ContentFactory
	progress ProgressWriter
	cfg      Config
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(modules ModuleSource, content ContentFactory, pw ProgressWriter, cfg Config, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = quiz.DefaultThreshold
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Registry{
		modules:  modules,
		content:  content,
		progress: pw,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func sessionKey(userID, courseID string) string { return userID + "|" + courseID }

// Open returns the user's session for courseID, creating it on first use.
func (r *Registry) Open(ctx context.Context, userID, courseID string) (*Session, error) {
	now := r.now()
	key := sessionKey(userID, courseID)

	r.mu.Lock()
	r.evictLocked(now)
	if s, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		s.touch(now)
		return s, nil
	}
	r.mu.Unlock()

	mods, err := r.modules.Modules(ctx, courseID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		s.touch(now)
		return s, nil
	}
	s := newSession(userID, mods, r.content(), r.progress, r.cfg, r.log)
	s.touch(now)
	r.sessions[key] = s
	return s, nil
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(userID, courseID string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[sessionKey(userID, courseID)]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Drop closes every session of userID.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	var closing []*Session
	for k, s := range r.sessions {
		if s.userID == userID {
			closing = append(closing, s)
			delete(r.sessions, k)
		}
	}
	r.mu.Unlock()
	for _, s := range closing {
		s.close()
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}

func (r *Registry) evictLocked(now time.Time) {
	for k, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.cfg.IdleTTL {
			delete(r.sessions, k)
			go s.close()
		}
	}
}
