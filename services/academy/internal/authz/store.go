package authz

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// PostgresRoles calls the is_admin(uid) database function.
type PostgresRoles struct {
	db *pgxpool.Pool
}

func NewPostgresRoles(db *pgxpool.Pool) *PostgresRoles {
	return &PostgresRoles{db: db}
}

func (p *PostgresRoles) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := p.db.QueryRow(ctx, `SELECT is_admin($1)`, userID).Scan(&ok)
	return ok, err
}

// Schema creates the admin role table and the is_admin function.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS user_roles (
  user_id TEXT NOT NULL,
  role    TEXT NOT NULL,
  PRIMARY KEY (user_id, role)
)`,
	`CREATE OR REPLACE FUNCTION is_admin(uid TEXT) RETURNS BOOLEAN
LANGUAGE sql STABLE AS $$
  SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = uid AND role = 'admin')
$$`,
}

// MemoryRoles is a fixed set of admin user ids.
type MemoryRoles struct {
	mu     sync.RWMutex
	admins map[string]bool
}

func NewMemoryRoles(adminIDs ...string) *MemoryRoles {
	m := &MemoryRoles{admins: make(map[string]bool)}
	for _, id := range adminIDs {
		m.admins[id] = true
	}
	return m
}

func (m *MemoryRoles) IsAdmin(_ context.Context, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.admins[userID], nil
}

func (m *MemoryRoles) Grant(userID string) {
	m.mu.Lock()
	m.admins[userID] = true
	m.mu.Unlock()
}

// PreferenceStore persists the admin "view as user" toggle across sessions.
type PreferenceStore interface {
	ViewAsUser(ctx context.Context, userID string) (bool, error)
	SetViewAsUser(ctx context.Context, userID string, v bool) error
}

type RedisPreferences struct {
	client *redis.Client
}

func NewRedisPreferences(client *redis.Client) *RedisPreferences {
	return &RedisPreferences{client: client}
}

func prefKey(userID string) string { return "academy:admin-view-as-user:" + userID }

func (r *RedisPreferences) ViewAsUser(ctx context.Context, userID string) (bool, error) {
	v, err := r.client.Get(ctx, prefKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (r *RedisPreferences) SetViewAsUser(ctx context.Context, userID string, v bool) error {
	if !v {
		return r.client.Del(ctx, prefKey(userID)).Err()
	}
	return r.client.Set(ctx, prefKey(userID), "true", 0).Err()
}

type MemoryPreferences struct {
	mu    sync.RWMutex
	views map[string]bool
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{views: make(map[string]bool)}
}

func (m *MemoryPreferences) ViewAsUser(_ context.Context, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.views[userID], nil
}

func (m *MemoryPreferences) SetViewAsUser(_ context.Context, userID string, v bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v {
		m.views[userID] = true
	} else {
		delete(m.views, userID)
	}
	return nil
}
