// Package catalog holds the course catalog and resolves each course's modules from its playlist.
package catalog

import (
	"errors"
	"sort"
	"strings"
)

var ErrCourseNotFound = errors.New("course not found")

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

type Course struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Description     string   `json:"description"`
	ThumbnailURL    string   `json:"thumbnailUrl"`
	PlaylistID      string   `json:"youtubePlaylistId,omitempty"`
	DurationMinutes int      `json:"duration"`
	Level           Level    `json:"level"`
	Topics          []string `json:"topics"`
	EnrollmentCount int      `json:"enrollmentCount"`
	CompletionRate  int      `json:"completionRate"`
	Rating          float64  `json:"rating"`
	CreatedAt       string   `json:"createdAt"`
	UpdatedAt       string   `json:"updatedAt"`
}

type LearningPath struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	CourseIDs       []string `json:"courses"`
	AssessmentIDs   []string `json:"assessments"`
	DurationMinutes int      `json:"duration"`
	Level           Level    `json:"level"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Level Level
	Topic string
	Query string
}

func (f Filter) match(c Course) bool {
	if f.Level != "" && c.Level != f.Level {
		return false
	}
	if f.Topic != "" {
		found := false
		for _, t := range c.Topics {
			if strings.EqualFold(t, f.Topic) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(c.Title), q) && !strings.Contains(strings.ToLower(c.Description), q) {
			return false
		}
	}
	return true
}

// Catalog is an immutable, in-memory course catalog.
type Catalog struct {
	courses []Course
	paths   []LearningPath
	byID    map[string]int
	bySlug  map[string]int
}

func New(courses []Course, paths []LearningPath) *Catalog {
	c := &Catalog{
		courses: append([]Course(nil), courses...),
		paths:   append([]LearningPath(nil), paths...),
		byID:    make(map[string]int, len(courses)),
		bySlug:  make(map[string]int, len(courses)),
	}
	for i, course := range c.courses {
		c.byID[course.ID] = i
		c.bySlug[course.Slug] = i
	}
	return c
}

// Default returns the catalog seeded with the academy's published courses.
func Default() *Catalog { return New(seedCourses, seedPaths) }

func (c *Catalog) List(f Filter) []Course {
	out := []Course{}
	for _, course := range c.courses {
		if f.match(course) {
			out = append(out, course)
		}
	}
	return out
}

func (c *Catalog) ByID(id string) (Course, error) {
	i, ok := c.byID[id]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return c.courses[i], nil
}

// BySlug also accepts a course id, so links built from either resolve.
func (c *Catalog) BySlug(slug string) (Course, error) {
	if i, ok := c.bySlug[slug]; ok {
		return c.courses[i], nil
	}
	return c.ByID(slug)
}

func (c *Catalog) LearningPaths() []LearningPath {
	return append([]LearningPath(nil), c.paths...)
}

// Topics returns every topic in the catalog, sorted.
func (c *Catalog) Topics() []string {
	seen := map[string]bool{}
	var out []string
	for _, course := range c.courses {
		for _, t := range course.Topics {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}
