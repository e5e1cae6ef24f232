package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/breaker"
	"github.com/example/drone-academy/services/academy/internal/format"
)

// RemoteGenerator calls a hosted generation function over HTTP.
type RemoteGenerator struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	CB         *gobreaker.CircuitBreaker
	Log        *zap.Logger
}

func NewRemoteGenerator(url, apiKey string, cb *gobreaker.CircuitBreaker, log *zap.Logger) *RemoteGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &RemoteGenerator{
		URL:        url,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
		CB:         cb,
		Log:        log,
	}
}

type remoteRequest struct {
	Transcript  []format.Segment `json:"transcript"`
	ContentType Kind             `json:"contentType"`
}

type remoteResponse struct {
	Summary   string         `json:"summary"`
	Questions []wireQuestion `json:"questions"`
	Error     string         `json:"error"`
}

func (g *RemoteGenerator) Summary(ctx context.Context, transcript []format.Segment) (string, error) {
	out, err := g.call(ctx, KindSummary, transcript)
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return "", generationErr(KindSummary, errEmptySummary)
	}
	return summary, nil
}

func (g *RemoteGenerator) Questions(ctx context.Context, transcript []format.Segment) ([]Question, error) {
	out, err := g.call(ctx, KindQuestions, transcript)
	if err != nil {
		return nil, err
	}
	qs := fromWire(out.Questions)
	if err := validateAll(qs); err != nil {
		return nil, generationErr(KindQuestions, err)
	}
	return qs, nil
}

func (g *RemoteGenerator) call(ctx context.Context, kind Kind, transcript []format.Segment) (*remoteResponse, error) {
	if len(transcript) == 0 {
		return nil, &GenerationError{Kind: kind, Message: errEmptyTranscript.Error(), Err: errEmptyTranscript}
	}
	body, err := json.Marshal(remoteRequest{Transcript: transcript, ContentType: kind})
	if err != nil {
		return nil, generationErr(kind, err)
	}

	out, err := breaker.Do(g.CB, func() (*remoteResponse, error) {
		return g.post(ctx, body)
	})
	if err != nil {
		g.Log.Warn("generation call failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, generationErr(kind, err)
	}
	if out.Error != "" {
		return nil, generationErr(kind, errors.New(out.Error))
	}
	return out, nil
}

func (g *RemoteGenerator) post(ctx context.Context, body []byte) (*remoteResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	var out remoteResponse
	decodeErr := json.Unmarshal(b, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("status %d body=%q", resp.StatusCode, truncate(b, 256))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode: %w", decodeErr)
	}
	return &out, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
