// Package transcript retrieves caption segments for a video from the transcript service.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/drone-academy/services/academy/internal/format"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

var errNoSegments = errors.New("no transcript segments returned")

// Fetcher is the contract the content orchestration depends on.
// A nil slice with a nil error means no transcript is available.
type Fetcher interface {
	FetchTranscript(ctx context.Context, videoID string) ([]format.Segment, error)
}

type Config struct {
	BaseURL     string
	MaxAttempts int
	BaseDelay   time.Duration
}

type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	MaxAttempts int
	BaseDelay   time.Duration
	Log         *zap.Logger

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	return &Client{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient:  &http.Client{Timeout: 20 * time.Second},
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		Log:         log,
		sleep:       sleepCtx,
		now:         time.Now,
	}
}

type response struct {
	Transcript []format.Segment `json:"transcript"`
	Error      string           `json:"error"`
}

// FetchTranscript makes up to MaxAttempts requests, waiting BaseDelay·2^(n-1)
// after the n-th failure. An empty transcript counts as a failed attempt.
// After the last failure it returns nil, nil. Only context cancellation is an error.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) ([]format.Segment, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		segments, err := c.fetchOnce(ctx, videoID)
		if err == nil {
			c.Log.Info("transcript fetched",
				zap.String("video_id", videoID),
				zap.Int("attempt", attempt),
				zap.Int("segments", len(segments)),
			)
			return segments, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		c.Log.Warn("transcript attempt failed",
			zap.String("video_id", videoID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.MaxAttempts),
			zap.Error(err),
		)
		if attempt == c.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, backoffDelay(c.BaseDelay, attempt)); err != nil {
			return nil, err
		}
	}

	c.Log.Error("transcript unavailable", zap.String("video_id", videoID), zap.Error(lastErr))
	return nil, nil
}

func (c *Client) fetchOnce(ctx context.Context, videoID string) ([]format.Segment, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("transcript: base url: %w", err)
	}
	q := u.Query()
	q.Set("videoId", videoID)
	q.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("transcript: status %d body=%q", resp.StatusCode, truncate(b, 256))
	}

	var out response
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("transcript: decode: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("transcript: %s", out.Error)
	}
	if len(out.Transcript) == 0 {
		return nil, errNoSegments
	}
	return out.Transcript, nil
}

// backoffDelay: 1st failure -> base, 2nd -> 2·base, 3rd -> 4·base ...
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
