package assessment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCertificateNotFound = errors.New("certificate not found")

// Holder is the person named on a certificate.
type Holder struct {
	FullName    string `json:"fullName"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
}

func (h Holder) valid() bool {
	return strings.TrimSpace(h.FullName) != "" &&
		strings.TrimSpace(h.Designation) != "" &&
		strings.Contains(h.Email, "@")
}

type Certificate struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	UserID          string    `json:"userId"`
	AttemptID       string    `json:"attemptId"`
	AssessmentID    string    `json:"assessmentId"`
	AssessmentTitle string    `json:"assessmentTitle"`
	Holder          Holder    `json:"holder"`
	Score           int       `json:"score"`
	IssuedAt        time.Time `json:"issuedAt"`
	VerifyURL       string    `json:"verifyUrl,omitempty"`
}

func newCode() string {
	return "FB-CERT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

type CertificateStore interface {
	Insert(ctx context.Context, c Certificate) error
	ByID(ctx context.Context, id string) (Certificate, error)
	ByAttempt(ctx context.Context, attemptID string) (Certificate, error)
	ListByUser(ctx context.Context, userID string) ([]Certificate, error)
	Count(ctx context.Context) (int, error)
}

type MemoryCertificateStore struct {
	mu    sync.RWMutex
	items map[string]Certificate
}

func NewMemoryCertificateStore() *MemoryCertificateStore {
	return &MemoryCertificateStore{items: make(map[string]Certificate)}
}

func (m *MemoryCertificateStore) Insert(_ context.Context, c Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.ID] = c
	return nil
}

func (m *MemoryCertificateStore) ByID(_ context.Context, id string) (Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[id]
	if !ok {
		return Certificate{}, ErrCertificateNotFound
	}
	return c, nil
}

func (m *MemoryCertificateStore) ByAttempt(_ context.Context, attemptID string) (Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.items {
		if c.AttemptID == attemptID {
			return c, nil
		}
	}
	return Certificate{}, ErrCertificateNotFound
}

func (m *MemoryCertificateStore) ListByUser(_ context.Context, userID string) ([]Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Certificate{}
	for _, c := range m.items {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

func (m *MemoryCertificateStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

// CertificateSchema creates the certificates table.
var CertificateSchema = []string{
	`CREATE TABLE IF NOT EXISTS certificates (
  id               UUID PRIMARY KEY,
  code             TEXT NOT NULL UNIQUE,
  user_id          TEXT NOT NULL,
  attempt_id       TEXT NOT NULL UNIQUE,
  assessment_id    TEXT NOT NULL,
  assessment_title TEXT NOT NULL,
  full_name        TEXT NOT NULL,
  designation      TEXT NOT NULL,
  email            TEXT NOT NULL,
  score            INT NOT NULL,
  issued_at        TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS certificates_user_idx ON certificates (user_id, issued_at DESC)`,
}

type PostgresCertificateStore struct {
	db *pgxpool.Pool
}

func NewPostgresCertificateStore(db *pgxpool.Pool) *PostgresCertificateStore {
	return &PostgresCertificateStore{db: db}
}

const certCols = `id, code, user_id, attempt_id, assessment_id, assessment_title, full_name, designation, email, score, issued_at`

func scanCertificate(row pgx.Row) (Certificate, error) {
	var c Certificate
	err := row.Scan(&c.ID, &c.Code, &c.UserID, &c.AttemptID, &c.AssessmentID, &c.AssessmentTitle,
		&c.Holder.FullName, &c.Holder.Designation, &c.Holder.Email, &c.Score, &c.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Certificate{}, ErrCertificateNotFound
	}
	return c, err
}

func (p *PostgresCertificateStore) Insert(ctx context.Context, c Certificate) error {
	_, err := p.db.Exec(ctx, `INSERT INTO certificates (`+certCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.Code, c.UserID, c.AttemptID, c.AssessmentID, c.AssessmentTitle,
		c.Holder.FullName, c.Holder.Designation, c.Holder.Email, c.Score, c.IssuedAt)
	return err
}

func (p *PostgresCertificateStore) ByID(ctx context.Context, id string) (Certificate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Certificate{}, ErrCertificateNotFound
	}
	return scanCertificate(p.db.QueryRow(ctx, `SELECT `+certCols+` FROM certificates WHERE id=$1`, id))
}

func (p *PostgresCertificateStore) ByAttempt(ctx context.Context, attemptID string) (Certificate, error) {
	return scanCertificate(p.db.QueryRow(ctx, `SELECT `+certCols+` FROM certificates WHERE attempt_id=$1`, attemptID))
}

func (p *PostgresCertificateStore) ListByUser(ctx context.Context, userID string) ([]Certificate, error) {
	rows, err := p.db.Query(ctx, `SELECT `+certCols+` FROM certificates WHERE user_id=$1 ORDER BY issued_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Certificate{}
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresCertificateStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&n)
	return n, err
}
