// Package insights aggregates platform activity for the admin dashboard.
package insights

import (
	"context"
	"math"
	"sort"

	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/progress"
	"github.com/example/drone-academy/services/academy/internal/testimonials"
)

type ProgressStats interface {
	Stats(ctx context.Context) (progress.Stats, error)
}

type TestimonialLister interface {
	ListAll(ctx context.Context) ([]testimonials.Testimonial, error)
}

type CertificateCounter interface {
	CertificateCount(ctx context.Context) (int, error)
}

type CourseInsight struct {
	CourseID        string  `json:"courseId"`
	Title           string  `json:"title"`
	Enrollments     int     `json:"enrollments"`
	Completions     int     `json:"completions"`
	CompletionRate  float64 `json:"completionRate"`
	AverageProgress float64 `json:"averageProgress"`
}

type Overview struct {
	Learners              int             `json:"learners"`
	Enrollments           int             `json:"enrollments"`
	Completions           int             `json:"completions"`
	CompletionRate        float64         `json:"completionRate"`
	ActiveCourses         int             `json:"activeCourses"`
	TotalCourses          int             `json:"totalCourses"`
	Testimonials          int             `json:"testimonials"`
	PublishedTestimonials int             `json:"publishedTestimonials"`
	AverageRating         float64         `json:"averageRating"`
	CertificatesIssued    int             `json:"certificatesIssued"`
	Courses               []CourseInsight `json:"courses"`
}

type Service struct {
	catalog      *catalog.Catalog
	progress     ProgressStats
	testimonials TestimonialLister
	certificates CertificateCounter
}

func NewService(c *catalog.Catalog, p ProgressStats, t TestimonialLister, certs CertificateCounter) *Service {
	return &Service{catalog: c, progress: p, testimonials: t, certificates: certs}
}

// Overview builds the dashboard. Courses are ordered by enrollments, then id.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	st, err := s.progress.Stats(ctx)
	if err != nil {
		return Overview{}, err
	}
	courses := s.catalog.List(catalog.Filter{})
	ov := Overview{
		Learners:     st.Learners,
		Enrollments:  st.Enrollments,
		Completions:  st.Completions,
		TotalCourses: len(courses),
		Courses:      make([]CourseInsight, 0, len(courses)),
	}
	ov.CompletionRate = rate(st.Completions, st.Enrollments)

	byID := make(map[string]progress.CourseStat, len(st.Courses))
	for _, cs := range st.Courses {
		byID[cs.CourseID] = cs
	}
	for _, c := range courses {
		cs := byID[c.ID]
		if cs.Enrollments > 0 {
			ov.ActiveCourses++
		}
		ov.Courses = append(ov.Courses, CourseInsight{
			CourseID:        c.ID,
			Title:           c.Title,
			Enrollments:     cs.Enrollments,
			Completions:     cs.Completions,
			CompletionRate:  rate(cs.Completions, cs.Enrollments),
			AverageProgress: round1(cs.AverageProgress),
		})
	}
	sort.SliceStable(ov.Courses, func(i, j int) bool {
		if ov.Courses[i].Enrollments != ov.Courses[j].Enrollments {
			return ov.Courses[i].Enrollments > ov.Courses[j].Enrollments
		}
		return ov.Courses[i].CourseID < ov.Courses[j].CourseID
	})

	if s.testimonials != nil {
		list, err := s.testimonials.ListAll(ctx)
		if err != nil {
			return Overview{}, err
		}
		sum := 0
		for _, t := range list {
			if t.Published {
				ov.PublishedTestimonials++
			}
			sum += t.Rating
		}
		ov.Testimonials = len(list)
		if len(list) > 0 {
			ov.AverageRating = round1(float64(sum) / float64(len(list)))
		}
	}
	if s.certificates != nil {
		n, err := s.certificates.CertificateCount(ctx)
		if err != nil {
			return Overview{}, err
		}
		ov.CertificatesIssued = n
	}
	return ov, nil
}

// rate is n/of as a percentage with one decimal.
func rate(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return round1(100 * float64(n) / float64(of))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
