package progress

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the user_courses table.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS user_courses (
  id               UUID PRIMARY KEY,
  user_id          TEXT NOT NULL,
  course_id        TEXT NOT NULL,
  progress         INT NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
  status           TEXT NOT NULL DEFAULT 'not_started',
  started_at       TIMESTAMPTZ NOT NULL,
  last_accessed_at TIMESTAMPTZ NOT NULL,
  completed_at     TIMESTAMPTZ,
  UNIQUE (user_id, course_id)
)`,
	`CREATE INDEX IF NOT EXISTS user_courses_user_accessed_idx ON user_courses (user_id, last_accessed_at DESC)`,
}

// PostgresRepository is the production Postgres-backed implementation.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectCols = `id, user_id, course_id, progress, status, started_at, last_accessed_at, completed_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	var status string
	err := row.Scan(&r.ID, &r.UserID, &r.CourseID, &r.Progress, &status, &r.StartedAt, &r.LastAccessedAt, &r.CompletedAt)
	r.Status = Status(status)
	return r, err
}

func (p *PostgresRepository) Find(ctx context.Context, userID, courseID string) (Record, error) {
	q := `SELECT ` + selectCols + ` FROM user_courses WHERE user_id=$1 AND course_id=$2`
	r, err := scanRecord(p.db.QueryRow(ctx, q, userID, courseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (p *PostgresRepository) Insert(ctx context.Context, r Record) error {
	q := `INSERT INTO user_courses (id, user_id, course_id, progress, status, started_at, last_accessed_at, completed_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := p.db.Exec(ctx, q, r.ID, r.UserID, r.CourseID, r.Progress, string(r.Status), r.StartedAt, r.LastAccessedAt, r.CompletedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (p *PostgresRepository) Update(ctx context.Context, r Record) error {
	q := `UPDATE user_courses
	      SET progress=$3, status=$4, last_accessed_at=$5, completed_at=$6
	      WHERE user_id=$1 AND course_id=$2`
	ct, err := p.db.Exec(ctx, q, r.UserID, r.CourseID, r.Progress, string(r.Status), r.LastAccessedAt, r.CompletedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresRepository) ListByUser(ctx context.Context, userID string, status Status, limit int) ([]Record, error) {
	q := `SELECT ` + selectCols + ` FROM user_courses WHERE user_id=$1`
	args := []any{userID}
	if status != "" {
		args = append(args, string(status))
		q += " AND status=$" + strconv.Itoa(len(args))
	}
	q += " ORDER BY last_accessed_at DESC, course_id"
	if limit > 0 {
		args = append(args, limit)
		q += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := p.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	ct, err := p.db.Exec(ctx, `DELETE FROM user_courses WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func (p *PostgresRepository) Stats(ctx context.Context) (Stats, error) {
	q := `SELECT course_id, COUNT(*), COUNT(*) FILTER (WHERE status='completed'), COALESCE(AVG(progress), 0)
	      FROM user_courses GROUP BY course_id ORDER BY course_id`
	rows, err := p.db.Query(ctx, q)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	st := Stats{Courses: []CourseStat{}}
	for rows.Next() {
		var cs CourseStat
		if err := rows.Scan(&cs.CourseID, &cs.Enrollments, &cs.Completions, &cs.AverageProgress); err != nil {
			return Stats{}, err
		}
		st.Enrollments += cs.Enrollments
		st.Completions += cs.Completions
		st.Courses = append(st.Courses, cs)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	if err := p.db.QueryRow(ctx, `SELECT COUNT(DISTINCT user_id) FROM user_courses`).Scan(&st.Learners); err != nil {
		return Stats{}, err
	}
	return st, nil
}
