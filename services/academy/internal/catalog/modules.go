package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/drone-academy/services/academy/internal/cache"
	"github.com/example/drone-academy/services/academy/internal/youtube"
)

type Source string

const (
	SourcePlaylist Source = "playlist"
	SourceDefault  Source = "default"
)

const (
	warnFetchFailed   = "Couldn't load course videos. Showing default content instead."
	warnCredentials   = "Course videos are temporarily unavailable. Showing default content instead."
	warnEmptyPlaylist = "No videos found in the course playlist. Showing default content instead."
)

type Lesson struct {
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

type Module struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Duration    string   `json:"duration"`
	Description string   `json:"description"`
	VideoID     string   `json:"videoId"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	PlaylistID  string   `json:"playlistId,omitempty"`
	Lessons     []Lesson `json:"lessons"`
}

// Modules is the resolved module list of one course. Warning is set when the
// list fell back to the default modules after a failure.
type Modules struct {
	CourseID string   `json:"courseId"`
	Source   Source   `json:"source"`
	Warning  string   `json:"warning,omitempty"`
	Modules  []Module `json:"modules"`
}

// DefaultModules returns a copy of the built-in module list.
func DefaultModules() []Module {
	out := make([]Module, len(defaultModules))
	for i, m := range defaultModules {
		m.Lessons = append([]Lesson(nil), m.Lessons...)
		out[i] = m
	}
	return out
}

type ModuleService struct {
	catalog  *Catalog
	playlist youtube.Provider
	cache    cache.Store
	log      *zap.Logger
}

// NewModuleService resolves modules through playlist, caching ingested
// playlists in store. A nil playlist provider always yields default modules.
func NewModuleService(c *Catalog, playlist youtube.Provider, store cache.Store, log *zap.Logger) *ModuleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModuleService{catalog: c, playlist: playlist, cache: store, log: log}
}

func (s *ModuleService) Modules(ctx context.Context, courseID string) (Modules, error) {
	course, err := s.catalog.ByID(courseID)
	if err != nil {
		return Modules{}, err
	}
	if course.PlaylistID == "" || s.playlist == nil {
		return Modules{CourseID: course.ID, Source: SourceDefault, Modules: DefaultModules()}, nil
	}

	lessons, err := s.lessons(ctx, course.PlaylistID)
	if err != nil {
		if ctx.Err() != nil {
			return Modules{}, ctx.Err()
		}
		warning := warnFetchFailed
		if youtube.IsInvalidCredentials(err) {
			warning = warnCredentials
		}
		s.log.Warn("playlist ingestion failed, using default modules",
			zap.String("course_id", course.ID),
			zap.String("playlist_id", course.PlaylistID),
			zap.Error(err),
		)
		return Modules{CourseID: course.ID, Source: SourceDefault, Warning: warning, Modules: DefaultModules()}, nil
	}
	if len(lessons) == 0 {
		return Modules{CourseID: course.ID, Source: SourceDefault, Warning: warnEmptyPlaylist, Modules: DefaultModules()}, nil
	}

	mods := make([]Module, len(lessons))
	for i, l := range lessons {
		mods[i] = Module{
			Number:      i + 1,
			Title:       l.Title,
			Duration:    l.Duration,
			Description: fmt.Sprintf("Module %d of the %s course", i+1, course.Title),
			VideoID:     l.ID,
			Thumbnail:   l.Thumbnail,
			PlaylistID:  course.PlaylistID,
			Lessons:     []Lesson{{Title: l.Title, Duration: l.Duration}},
		}
	}
	return Modules{CourseID: course.ID, Source: SourcePlaylist, Modules: mods}, nil
}

func (s *ModuleService) lessons(ctx context.Context, playlistID string) ([]youtube.Lesson, error) {
	key := "playlist:" + playlistID
	if s.cache != nil {
		var cached []youtube.Lesson
		ok, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("playlist cache read failed", zap.String("playlist_id", playlistID), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	lessons, err := s.playlist.FetchPlaylistVideos(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(lessons) > 0 {
		if err := s.cache.Set(ctx, key, lessons); err != nil {
			s.log.Warn("playlist cache write failed", zap.String("playlist_id", playlistID), zap.Error(err))
		}
	}
	return lessons, nil
}
