// Package coursecontent sequences transcript retrieval and content generation for the active video.
package coursecontent

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/example/drone-academy/services/academy/internal/format"
	"github.com/example/drone-academy/services/academy/internal/generation"
	"github.com/example/drone-academy/services/academy/internal/transcript"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// TranscriptUnavailableMessage is shown when no captions could be fetched.
const TranscriptUnavailableMessage = "Failed to fetch transcript for this video. The video might not have captions available."

var ErrNotRetryable = errors.New("content is not in an error state")

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	VideoID   string                `json:"videoId"`
	State     State                 `json:"state"`
	Summary   string                `json:"summary,omitempty"`
	Questions []generation.Question `json:"questions,omitempty"`
	Error     string                `json:"error,omitempty"`
	Attempt   int                   `json:"attempt"`
	// Load changes each time Load starts over; Retry keeps it.
	Load      uint64                `json:"load"`
}

// Controller owns the content state for one learner's active video.
// A Load or Retry supersedes any load in flight; superseded results are discarded.
type Controller struct {
	transcripts transcript.Fetcher
	generator   generation.Generator
	log         *zap.Logger
	// loadContext scopes each load; tests swap it to keep superseded loads running.
	loadContext func() (context.Context, context.CancelFunc)

	mu        sync.Mutex
	token     uint64
	cancel    context.CancelFunc
	done      chan struct{}
	videoID   string
	state     State
	segments  []format.Segment
	summary   string
	questions []generation.Question
	errMsg    string
	attempt   int
	loads     uint64

	wg sync.WaitGroup
}

func New(t transcript.Fetcher, g generation.Generator, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		transcripts: t,
		generator:   g,
		log:         log,
		state:       StateIdle,
		loadContext: func() (context.Context, context.CancelFunc) {
			return context.WithCancel(context.Background())
		},
	}
}

// Load switches the controller to videoID. Loading the video that is already
// loading or ready is a no-op; an empty id returns the controller to idle.
func (c *Controller) Load(videoID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if videoID == c.videoID && (c.state == StateLoading || c.state == StateReady) {
		return
	}
	c.stopLocked()
	c.loads++
	c.videoID = videoID
	c.segments = nil
	c.summary = ""
	c.questions = nil
	c.errMsg = ""
	c.attempt = 0
	if videoID == "" {
		c.state = StateIdle
		return
	}
	c.startLocked()
}

// Retry re-enters loading from the error state, reusing any transcript or
// content that already succeeded.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateError {
		return ErrNotRetryable
	}
	c.attempt++
	c.errMsg = ""
	c.startLocked()
	return nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		VideoID:   c.videoID,
		State:     c.state,
		Summary:   c.summary,
		Questions: append([]generation.Question(nil), c.questions...),
		Error:     c.errMsg,
		Attempt:   c.attempt,
		Load:      c.loads,
	}
}

// Wait blocks until the current load finishes or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any load in flight and waits for all loads to return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) stopLocked() {
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) startLocked() {
	c.token++
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := c.loadContext()
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.state = StateLoading

	job := load{
		token:     c.token,
		videoID:   c.videoID,
		segments:  c.segments,
		summary:   c.summary,
		questions: c.questions,
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		defer cancel()
		c.run(ctx, job)
	}()
}

type load struct {
	token     uint64
	videoID   string
	segments  []format.Segment
	summary   string
	questions []generation.Question
}

func (c *Controller) run(ctx context.Context, job load) {
	log := c.log.With(zap.String("video_id", job.videoID))

	segs := job.segments
	if len(segs) == 0 {
		var err error
		segs, err = c.transcripts.FetchTranscript(ctx, job.videoID)
		if ctx.Err() != nil {
			return
		}
		if err != nil || len(segs) == 0 {
			log.Info("transcript unavailable", zap.Error(err))
			c.commit(job.token, func() {
				c.state = StateError
				c.errMsg = TranscriptUnavailableMessage
			})
			return
		}
		if !c.commit(job.token, func() { c.segments = segs }) {
			return
		}
	}

	var firstErr error
	if job.summary == "" {
		summary, err := c.generator.Summary(ctx, segs)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("summary generation failed", zap.Error(err))
			firstErr = err
		} else if !c.commit(job.token, func() { c.summary = summary }) {
			return
		}
	}

	if len(job.questions) == 0 {
		questions, err := c.generator.Questions(ctx, segs)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("question generation failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		} else if !c.commit(job.token, func() { c.questions = questions }) {
			return
		}
	}

	c.commit(job.token, func() {
		if firstErr != nil {
			c.state = StateError
			c.errMsg = firstErr.Error()
			return
		}
		c.state = StateReady
	})
}

// commit applies fn only if token still identifies the current load.
func (c *Controller) commit(token uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		return false
	}
	fn()
	return true
}
