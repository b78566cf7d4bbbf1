package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

// memoryStore keeps tasks in process memory. It mirrors the sqlite driver's
// semantics (ordering, conditional transitions) so tests exercise the same
// contract the scheduler sees in production.
type memoryStore struct {
	log logx.Logger

	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*Task
}

func newMemory(log logx.Logger) *memoryStore {
	return &memoryStore{log: log, nextID: 1, tasks: map[int64]*Task{}}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Save(_ context.Context, t *Task) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := t.Clone()
	cp.ID = m.nextID
	m.nextID++
	if cp.OwnerID == "" {
		cp.OwnerID = DefaultOwner
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.tasks[cp.ID] = cp

	t.ID = cp.ID
	t.CreatedAt = cp.CreatedAt
	t.OwnerID = cp.OwnerID
	return cp.ID, nil
}

func (m *memoryStore) Get(_ context.Context, id int64) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (m *memoryStore) Pending(_ context.Context, dueBefore time.Time) ([]*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Task
	for _, t := range m.tasks {
		if t.Status == StatusPending && !t.ScheduledAt.After(dueBefore) {
			out = append(out, t.Clone())
		}
	}
	sortByTime(out)
	return out, nil
}

func (m *memoryStore) Upcoming(_ context.Context, limit int) ([]*Task, error) {
	if limit <= 0 {
		limit = 10
	}
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Task
	for _, t := range m.tasks {
		if (t.Status == StatusPending || t.Status == StatusActive) && !t.ScheduledAt.Before(now) {
			out = append(out, t.Clone())
		}
	}
	sortByTime(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) MarkActive(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != StatusPending {
		return false, nil
	}
	t.Status = StatusActive
	return true, nil
}

func (m *memoryStore) MarkCancelled(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return false, ErrNotFound
	}
	if t.Status != StatusPending && t.Status != StatusActive {
		return false, nil
	}
	t.Status = StatusCancelled
	return true, nil
}

func (m *memoryStore) UpdateStatus(_ context.Context, id int64, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = st
	return nil
}

func sortByTime(ts []*Task) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].ScheduledAt.Equal(ts[j].ScheduledAt) {
			return ts[i].ID < ts[j].ID
		}
		return ts[i].ScheduledAt.Before(ts[j].ScheduledAt)
	})
}
