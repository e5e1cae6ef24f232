package handlers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/auth"
	"github.com/example/drone-academy/services/academy/internal/assessment"
	"github.com/example/drone-academy/services/academy/internal/authz"
	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/course"
	"github.com/example/drone-academy/services/academy/internal/insights"
	"github.com/example/drone-academy/services/academy/internal/progress"
	"github.com/example/drone-academy/services/academy/internal/testimonials"
	"github.com/example/drone-academy/services/academy/internal/watchlist"
)

// Deps is everything the academy API is built from.
type Deps struct {
	Catalog      *catalog.Catalog
	Modules      ModuleSource
	Progress     *progress.Service
	CourseCache  Cache
	Watchlist    *watchlist.Service
	Sessions     *course.Registry
	Assessments  *assessment.Service
	Testimonials *testimonials.Service
	Authz        *authz.Service
	Insights     *insights.Service
	Verifier     auth.JWTVerifier
	// GenerationLimit guards routes that start transcript fetches and
	// content generation. Nil disables limiting.
	GenerationLimit *RateLimiter
	Log             *zap.Logger
}

// Mount registers the academy routes. httpserver.SetupRouter must run first.
func Mount(r chi.Router, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Get("/v1/courses", ListCourses(d.Catalog))
	r.Get("/v1/courses/{course}", GetCourse(d.Catalog, log))
	r.Get("/v1/courses/{course}/modules", CourseModules(d.Catalog, d.Modules, log))
	r.Get("/v1/learning-paths", LearningPaths(d.Catalog))
	r.Get("/v1/assessments", ListAssessments(d.Assessments))
	r.Get("/v1/assessments/{assessment}", GetAssessment(d.Assessments, log))
	r.Get("/v1/testimonials", PublishedTestimonials(d.Testimonials, log))
	r.Get("/v1/certificates/{certificate}/verify", VerifyCertificate(d.Assessments, log))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(d.Verifier))

		r.Get("/v1/me/courses", MyCourses(d.Progress, d.CourseCache, log))
		r.Get("/v1/me/courses/{course}", MyCourse(d.Progress, d.Catalog, log))
		r.Post("/v1/me/courses/{course}", EnrollCourse(d.Progress, d.Catalog, log))
		r.Put("/v1/me/courses/{course}/progress", UpdateProgress(d.Progress, d.Catalog, log))

		r.Get("/v1/me/watchlist", ListWatchlist(d.Watchlist, log))
		r.Get("/v1/me/watchlist/{course}", InWatchlist(d.Watchlist, log))
		r.Put("/v1/me/watchlist/{course}", AddToWatchlist(d.Watchlist, log))
		r.Delete("/v1/me/watchlist/{course}", RemoveFromWatchlist(d.Watchlist, log))

		s := Sessions{Registry: d.Sessions, Catalog: d.Catalog, Log: log}
		r.Route("/v1/me/sessions/{course}", func(r chi.Router) {
			r.Get("/", s.View)
			r.Get("/content", s.View)
			r.Post("/quiz/answer", s.Answer)
			r.Post("/quiz/next", s.Next)
			r.Post("/quiz/previous", s.Previous)
			r.Post("/quiz/reset", s.Reset)
			r.Group(func(r chi.Router) {
				if d.GenerationLimit != nil {
					r.Use(d.GenerationLimit.Middleware)
				}
				r.Post("/modules/{n}", s.SelectModule)
				r.Post("/content/retry", s.Retry)
				r.Post("/next-module", s.NextModule)
			})
		})

		r.Post("/v1/me/assessments/{assessment}/attempts", StartAssessment(d.Assessments, log))
		r.Get("/v1/me/attempts/{attempt}", GetAttempt(d.Assessments, log))
		r.Post("/v1/me/attempts/{attempt}/answers", AnswerAssessment(d.Assessments, log))
		r.Post("/v1/me/attempts/{attempt}/submit", SubmitAssessment(d.Assessments, log))
		r.Post("/v1/me/attempts/{attempt}/certificate", IssueCertificate(d.Assessments, log))
		r.Get("/v1/me/certificates", MyCertificates(d.Assessments, log))

		r.Post("/v1/me/testimonials", SubmitTestimonial(d.Testimonials, log))
		r.Delete("/v1/me/data", ResetMyData(d.Watchlist, d.Progress, d.Sessions, log))

		r.Get("/v1/me/admin", AdminStatus(d.Authz, log))
		r.Put("/v1/me/admin/view", SetAdminView(d.Authz, log))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(d.Authz))
			r.Get("/v1/admin/insights", Insights(d.Insights, log))
			r.Get("/v1/admin/testimonials", AdminTestimonials(d.Testimonials, log))
			r.Post("/v1/admin/testimonials", CreateTestimonial(d.Testimonials, log))
			r.Put("/v1/admin/testimonials/{testimonial}", UpdateTestimonial(d.Testimonials, log))
			r.Patch("/v1/admin/testimonials/{testimonial}/published", PublishTestimonial(d.Testimonials, log))
			r.Delete("/v1/admin/testimonials/{testimonial}", DeleteTestimonial(d.Testimonials, log))
		})
	})
}
