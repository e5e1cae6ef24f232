// Package youtube ingests a video playlist into ordered lesson descriptors.
package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/example/drone-academy/internal/platform/breaker"
	"github.com/example/drone-academy/services/academy/internal/format"
)

// PageSize is the number of playlist entries requested per page.
const PageSize = 50

// Lesson is one playable video of a playlist, ready for display.
type Lesson struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Order     int    `json:"order"`
}

// Provider is the ingestion contract consumed by the catalog.
type Provider interface {
	FetchPlaylistVideos(ctx context.Context, playlistID string) ([]Lesson, error)
}

type Config struct {
	APIKey string
	// Endpoint overrides the API base URL, e.g. for tests.
	Endpoint string
}

type Client struct {
	svc *yt.Service
	CB  *gobreaker.CircuitBreaker
	Log *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.CB = cb }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.Log = log }
}

func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	var clientOpts []option.ClientOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	} else {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("youtube: new service: %w", err)
	}
	c := &Client{svc: svc, Log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// FetchPlaylistVideos walks every page of playlistID and resolves each entry's
// metadata. Entries whose video cannot be resolved are skipped.
func (c *Client) FetchPlaylistVideos(ctx context.Context, playlistID string) ([]Lesson, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, fmt.Errorf("youtube: empty playlist id")
	}

	lessons := []Lesson{}
	pageToken := ""
	pages := 0
	for {
		page, err := c.listPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}
		pages++
		if pages == 1 && len(page.Items) == 0 {
			c.Log.Info("playlist empty", zap.String("playlist_id", playlistID))
			return lessons, nil
		}

		ids := videoIDs(page.Items)
		if len(ids) > 0 {
			videos, err := c.listVideos(ctx, ids)
			if err != nil {
				return nil, err
			}
			byID := make(map[string]*yt.Video, len(videos.Items))
			for _, v := range videos.Items {
				byID[v.Id] = v
			}
			for _, id := range ids {
				v, ok := byID[id]
				if !ok {
					continue
				}
				lessons = append(lessons, toLesson(v, len(lessons)+1))
			}
		} else {
			c.Log.Debug("playlist page without resolvable videos",
				zap.String("playlist_id", playlistID), zap.Int("page", pages))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.Log.Info("playlist ingested",
		zap.String("playlist_id", playlistID),
		zap.Int("pages", pages),
		zap.Int("lessons", len(lessons)),
	)
	return lessons, nil
}

func (c *Client) listPage(ctx context.Context, playlistID, pageToken string) (*yt.PlaylistItemListResponse, error) {
	resp, err := breaker.Do(c.CB, func() (*yt.PlaylistItemListResponse, error) {
		call := c.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(PageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		return call.Do()
	})
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

func (c *Client) listVideos(ctx context.Context, ids []string) (*yt.VideoListResponse, error) {
	resp, err := breaker.Do(c.CB, func() (*yt.VideoListResponse, error) {
		return c.svc.Videos.List([]string{"snippet", "contentDetails"}).
			Id(ids...).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

func videoIDs(items []*yt.PlaylistItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		id := ""
		if it.ContentDetails != nil {
			id = it.ContentDetails.VideoId
		}
		if id == "" && it.Snippet != nil && it.Snippet.ResourceId != nil {
			id = it.Snippet.ResourceId.VideoId
		}
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func toLesson(v *yt.Video, order int) Lesson {
	l := Lesson{ID: v.Id, Order: order, Duration: format.Duration("")}
	if v.Snippet != nil {
		l.Title = v.Snippet.Title
		l.Thumbnail = thumbnail(v.Snippet.Thumbnails)
	}
	if v.ContentDetails != nil {
		l.Duration = format.Duration(v.ContentDetails.Duration)
	}
	return l
}

func thumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
