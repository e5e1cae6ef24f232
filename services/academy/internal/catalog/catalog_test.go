package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/drone-academy/services/academy/internal/cache"
	"github.com/example/drone-academy/services/academy/internal/youtube"
)

type stubPlaylist struct {
	lessons []youtube.Lesson
	err     error
	calls   int
}

func (s *stubPlaylist) FetchPlaylistVideos(_ context.Context, _ string) ([]youtube.Lesson, error) {
	s.calls++
	return s.lessons, s.err
}

func TestCatalog_ListFilters(t *testing.T) {
	c := Default()
	if got := len(c.List(Filter{})); got != 6 {
		t.Fatalf("expected 6 courses, got %d", got)
	}
	if got := len(c.List(Filter{Level: LevelAdvanced})); got != 2 {
		t.Fatalf("expected 2 advanced courses, got %d", got)
	}
	got := c.List(Filter{Topic: "gis"})
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("topic filter: %+v", got)
	}
	got = c.List(Filter{Query: "FLEET"})
	if len(got) != 1 || got[0].Slug != "drone-fleet-management" {
		t.Fatalf("query filter: %+v", got)
	}
	if got := c.List(Filter{Query: "underwater"}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", got)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := Default()
	course, err := c.BySlug("drone-regulations-compliance")
	if err != nil || course.ID != "4" {
		t.Fatalf("by slug: %+v %v", course, err)
	}
	if course, err := c.BySlug("3"); err != nil || course.Slug != "advanced-drone-programming" {
		t.Fatalf("slug lookup should accept ids: %+v %v", course, err)
	}
	if _, err := c.ByID("99"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if len(c.LearningPaths()) != 3 {
		t.Fatal("expected 3 learning paths")
	}
}

func TestModules_FromPlaylist(t *testing.T) {
	pl := &stubPlaylist{lessons: []youtube.Lesson{
		{ID: "vid1", Title: "Preflight", Duration: "5:09", Order: 1},
		{ID: "vid2", Title: "Hovering", Duration: "1:02:03", Order: 2},
	}}
	store := cache.NewMemoryCache(time.Minute)
	svc := NewModuleService(Default(), pl, store, nil)

	got, err := svc.Modules(context.Background(), "1")
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	if got.Source != SourcePlaylist || got.Warning != "" || len(got.Modules) != 2 {
		t.Fatalf("unexpected modules %+v", got)
	}
	m := got.Modules[1]
	if m.Number != 2 || m.VideoID != "vid2" || m.Description != "Module 2 of the Introduction to Drone Technology course" {
		t.Fatalf("unexpected module %+v", m)
	}

	if _, err := svc.Modules(context.Background(), "2"); err != nil {
		t.Fatalf("second course: %v", err)
	}
	if pl.calls != 1 {
		t.Fatalf("shared playlist should be served from cache, fetched %d times", pl.calls)
	}
}

func TestModules_FallsBackToDefaults(t *testing.T) {
	cases := []struct {
		name    string
		pl      *stubPlaylist
		warning string
	}{
		{"upstream error", &stubPlaylist{err: &youtube.ExternalAPIError{Status: 500, Message: "backend"}}, warnFetchFailed},
		{"bad key", &stubPlaylist{err: &youtube.InvalidCredentialsError{ExternalAPIError: youtube.ExternalAPIError{Status: 400, Reason: "keyInvalid"}}}, warnCredentials},
		{"empty playlist", &stubPlaylist{lessons: []youtube.Lesson{}}, warnEmptyPlaylist},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewModuleService(Default(), tc.pl, nil, nil)
			got, err := svc.Modules(context.Background(), "1")
			if err != nil {
				t.Fatalf("fallback must not error: %v", err)
			}
			if got.Source != SourceDefault || got.Warning != tc.warning {
				t.Fatalf("unexpected source/warning: %s %q", got.Source, got.Warning)
			}
			if len(got.Modules) != 3 || got.Modules[0].VideoID != "O-b1_T_1xGs" {
				t.Fatalf("unexpected default modules %+v", got.Modules)
			}
		})
	}
}

func TestModules_UnknownCourse(t *testing.T) {
	svc := NewModuleService(Default(), nil, nil, nil)
	if _, err := svc.Modules(context.Background(), "nope"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	got, err := svc.Modules(context.Background(), "1")
	if err != nil || got.Source != SourceDefault || got.Warning != "" {
		t.Fatalf("no provider should yield silent defaults: %+v %v", got, err)
	}
}

func TestDefaultModules_ReturnsCopy(t *testing.T) {
	a := DefaultModules()
	a[0].Lessons[0].Title = "changed"
	if DefaultModules()[0].Lessons[0].Title != "What are Drones?" {
		t.Fatal("DefaultModules must not expose shared state")
	}
}
