package progress

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-process Repository used when no database is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[key]Record
}

type key struct{ user, course string }

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[key]Record)}
}

func (m *MemoryRepository) Find(_ context.Context, userID, courseID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[key{userID, courseID}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (m *MemoryRepository) Insert(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{r.UserID, r.CourseID}
	if _, ok := m.records[k]; ok {
		return ErrDuplicate
	}
	m.records[k] = r
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{r.UserID, r.CourseID}
	if _, ok := m.records[k]; !ok {
		return ErrNotFound
	}
	m.records[k] = r
	return nil
}

func (m *MemoryRepository) ListByUser(_ context.Context, userID string, status Status, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Record{}
	for k, r := range m.records {
		if k.user != userID || (status != "" && r.Status != status) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastAccessedAt.Equal(out[j].LastAccessedAt) {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].LastAccessedAt.After(out[j].LastAccessedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) DeleteByUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.records {
		if k.user == userID {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	learners := map[string]bool{}
	byCourse := map[string]*CourseStat{}
	sums := map[string]int{}
	var st Stats
	for k, r := range m.records {
		learners[k.user] = true
		cs := byCourse[k.course]
		if cs == nil {
			cs = &CourseStat{CourseID: k.course}
			byCourse[k.course] = cs
		}
		cs.Enrollments++
		sums[k.course] += r.Progress
		st.Enrollments++
		if r.Status == StatusCompleted {
			cs.Completions++
			st.Completions++
		}
	}
	st.Learners = len(learners)
	st.Courses = make([]CourseStat, 0, len(byCourse))
	for id, cs := range byCourse {
		cs.AverageProgress = float64(sums[id]) / float64(cs.Enrollments)
		st.Courses = append(st.Courses, *cs)
	}
	sort.Slice(st.Courses, func(i, j int) bool { return st.Courses[i].CourseID < st.Courses[j].CourseID })
	return st, nil
}
