package testimonials

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Testimonial
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Testimonial)}
}

func (m *MemoryStore) Insert(_ context.Context, t Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[t.ID] = t
	return nil
}

func (m *MemoryStore) Update(_ context.Context, t Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[t.ID]; !ok {
		return ErrNotFound
	}
	m.items[t.ID] = t
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Testimonial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.items[id]
	if !ok {
		return Testimonial{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryStore) List(_ context.Context, publishedOnly bool) ([]Testimonial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Testimonial{}
	for _, t := range m.items {
		if publishedOnly && !t.Published {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Schema creates the testimonials table.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS testimonials (
  id            UUID PRIMARY KEY,
  name          TEXT NOT NULL,
  title         TEXT NOT NULL,
  quote         TEXT NOT NULL,
  rating        INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
  is_published  BOOLEAN NOT NULL DEFAULT false,
  profile_image TEXT NOT NULL DEFAULT '',
  course_id     TEXT NOT NULL DEFAULT '',
  created_at    TIMESTAMPTZ NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS testimonials_published_idx ON testimonials (is_published, created_at DESC)`,
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const cols = `id, name, title, quote, rating, is_published, profile_image, course_id, created_at, updated_at`

func scan(row pgx.Row) (Testimonial, error) {
	var t Testimonial
	err := row.Scan(&t.ID, &t.Name, &t.Title, &t.Quote, &t.Rating, &t.Published, &t.ProfileImage, &t.CourseID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Testimonial{}, ErrNotFound
	}
	return t, err
}

func (p *PostgresStore) Insert(ctx context.Context, t Testimonial) error {
	_, err := p.db.Exec(ctx, `INSERT INTO testimonials (`+cols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.Name, t.Title, t.Quote, t.Rating, t.Published, t.ProfileImage, t.CourseID, t.CreatedAt, t.UpdatedAt)
	return err
}

func (p *PostgresStore) Update(ctx context.Context, t Testimonial) error {
	ct, err := p.db.Exec(ctx, `UPDATE testimonials
SET name=$2, title=$3, quote=$4, rating=$5, is_published=$6, profile_image=$7, course_id=$8, updated_at=$9
WHERE id=$1`,
		t.ID, t.Name, t.Title, t.Quote, t.Rating, t.Published, t.ProfileImage, t.CourseID, t.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	ct, err := p.db.Exec(ctx, `DELETE FROM testimonials WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (Testimonial, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Testimonial{}, ErrNotFound
	}
	return scan(p.db.QueryRow(ctx, `SELECT `+cols+` FROM testimonials WHERE id=$1`, id))
}

func (p *PostgresStore) List(ctx context.Context, publishedOnly bool) ([]Testimonial, error) {
	q := `SELECT ` + cols + ` FROM testimonials`
	if publishedOnly {
		q += ` WHERE is_published`
	}
	q += ` ORDER BY created_at DESC`
	rows, err := p.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Testimonial{}
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
