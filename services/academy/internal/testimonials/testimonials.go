// Package testimonials manages learner testimonials and their moderation.
package testimonials

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("testimonial not found")

type Testimonial struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	Quote        string    `json:"quote"`
	Rating       int       `json:"rating"`
	Published    bool      `json:"is_published"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CourseID     string    `json:"course_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Input is the editable part of a Testimonial.
type Input struct {
	Name         string `json:"name" validate:"required,max=120"`
	Title        string `json:"title" validate:"required,max=120"`
	Quote        string `json:"quote" validate:"required,max=1000"`
	Rating       int    `json:"rating" validate:"min=1,max=5"`
	Published    bool   `json:"is_published"`
	ProfileImage string `json:"profile_image" validate:"omitempty,url"`
	CourseID     string `json:"course_id"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return fmt.Sprintf("invalid testimonial: %s", strings.Join(keys, ", "))
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Title = strings.TrimSpace(in.Title)
	in.Quote = strings.TrimSpace(in.Quote)
	in.ProfileImage = strings.TrimSpace(in.ProfileImage)
	in.CourseID = strings.TrimSpace(in.CourseID)
	if in.Rating == 0 {
		in.Rating = 5
	}

	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "url":
		return "must be a valid URL"
	case "min", "max":
		if fe.Field() == "rating" {
			return "must be between 1 and 5"
		}
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}

type Store interface {
	Insert(ctx context.Context, t Testimonial) error
	Update(ctx context.Context, t Testimonial) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Testimonial, error)
	// List returns testimonials ordered by CreatedAt desc.
	List(ctx context.Context, publishedOnly bool) ([]Testimonial, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Submit stores a learner testimonial. It stays unpublished until approved.
func (s *Service) Submit(ctx context.Context, in Input) (Testimonial, error) {
	in.Published = false
	return s.Create(ctx, in)
}

func (s *Service) Create(ctx context.Context, in Input) (Testimonial, error) {
	if err := in.normalize(); err != nil {
		return Testimonial{}, err
	}
	now := s.now()
	t := Testimonial{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Title:        in.Title,
		Quote:        in.Quote,
		Rating:       in.Rating,
		Published:    in.Published,
		ProfileImage: in.ProfileImage,
		CourseID:     in.CourseID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return Testimonial{}, err
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Testimonial, error) {
	if err := in.normalize(); err != nil {
		return Testimonial{}, err
	}
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return Testimonial{}, err
	}
	t.Name, t.Title, t.Quote, t.Rating = in.Name, in.Title, in.Quote, in.Rating
	t.Published, t.ProfileImage, t.CourseID = in.Published, in.ProfileImage, in.CourseID
	t.UpdatedAt = s.now()
	if err := s.store.Update(ctx, t); err != nil {
		return Testimonial{}, err
	}
	return t, nil
}

func (s *Service) SetPublished(ctx context.Context, id string, published bool) (Testimonial, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return Testimonial{}, err
	}
	t.Published = published
	t.UpdatedAt = s.now()
	if err := s.store.Update(ctx, t); err != nil {
		return Testimonial{}, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]Testimonial, error) {
	return s.store.List(ctx, false)
}

func (s *Service) ListPublished(ctx context.Context) ([]Testimonial, error) {
	return s.store.List(ctx, true)
}
