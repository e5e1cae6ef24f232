// Package watchlist stores the courses a learner bookmarked.
package watchlist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrExists   = errors.New("course already in watchlist")
	ErrNotFound = errors.New("course not in watchlist")
)

type Item struct {
	UserID   string    `json:"userId"`
	CourseID string    `json:"courseId"`
	AddedAt  time.Time `json:"addedAt"`
}

type Store interface {
	Add(ctx context.Context, it Item) error
	Remove(ctx context.Context, userID, courseID string) error
	// List returns items ordered by AddedAt desc; limit <= 0 means all.
	List(ctx context.Context, userID string, limit int) ([]Item, error)
	Contains(ctx context.Context, userID, courseID string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[string]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]map[string]Item)}
}

func (m *MemoryStore) Add(_ context.Context, it Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byCourse := m.items[it.UserID]
	if byCourse == nil {
		byCourse = make(map[string]Item)
		m.items[it.UserID] = byCourse
	}
	if _, ok := byCourse[it.CourseID]; ok {
		return ErrExists
	}
	byCourse[it.CourseID] = it
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, userID, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[userID][courseID]; !ok {
		return ErrNotFound
	}
	delete(m.items[userID], courseID)
	return nil
}

func (m *MemoryStore) List(_ context.Context, userID string, limit int) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Item, 0, len(m.items[userID]))
	for _, it := range m.items[userID] {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Contains(_ context.Context, userID, courseID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[userID][courseID]
	return ok, nil
}

func (m *MemoryStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.items[userID])
	delete(m.items, userID)
	return n, nil
}

// Schema creates the watchlist table.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS watchlist (
  user_id   TEXT NOT NULL,
  course_id TEXT NOT NULL,
  added_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (user_id, course_id)
)`,
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Add(ctx context.Context, it Item) error {
	_, err := p.db.Exec(ctx, `INSERT INTO watchlist (user_id, course_id, added_at) VALUES ($1, $2, $3)`, it.UserID, it.CourseID, it.AddedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrExists
	}
	return err
}

func (p *PostgresStore) Remove(ctx context.Context, userID, courseID string) error {
	ct, err := p.db.Exec(ctx, `DELETE FROM watchlist WHERE user_id=$1 AND course_id=$2`, userID, courseID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, userID string, limit int) ([]Item, error) {
	q := `SELECT user_id, course_id, added_at FROM watchlist WHERE user_id=$1 ORDER BY added_at DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := p.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.UserID, &it.CourseID, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Contains(ctx context.Context, userID, courseID string) (bool, error) {
	var ok bool
	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM watchlist WHERE user_id=$1 AND course_id=$2)`, userID, courseID).Scan(&ok)
	return ok, err
}

func (p *PostgresStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	ct, err := p.db.Exec(ctx, `DELETE FROM watchlist WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

// Service validates course ids against the catalog before touching the store.
type Service struct {
	store  Store
	exists func(courseID string) bool
	now    func() time.Time
}

func NewService(store Store, exists func(courseID string) bool) *Service {
	return &Service{store: store, exists: exists, now: func() time.Time { return time.Now().UTC() }}
}

var ErrUnknownCourse = errors.New("unknown course")

func (s *Service) Add(ctx context.Context, userID, courseID string) (Item, error) {
	if s.exists != nil && !s.exists(courseID) {
		return Item{}, ErrUnknownCourse
	}
	it := Item{UserID: userID, CourseID: courseID, AddedAt: s.now()}
	if err := s.store.Add(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) Remove(ctx context.Context, userID, courseID string) error {
	return s.store.Remove(ctx, userID, courseID)
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]Item, error) {
	return s.store.List(ctx, userID, limit)
}

func (s *Service) Contains(ctx context.Context, userID, courseID string) (bool, error) {
	return s.store.Contains(ctx, userID, courseID)
}

func (s *Service) Clear(ctx context.Context, userID string) (int, error) {
	return s.store.DeleteByUser(ctx, userID)
}
