package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	dom "todoapi/internal/domain"
)

// MemoryTodoRepo keeps todos in process memory. It backs STORE_DRIVER=memory
// and the service tests.
type MemoryTodoRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]dom.Todo
	clock  *monotonicClock
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return newMemoryTodoRepo(nil)
}

func newMemoryTodoRepo(now func() time.Time) *MemoryTodoRepo {
	return &MemoryTodoRepo{rows: make(map[int64]dom.Todo), clock: newMonotonicClock(now)}
}

func (r *MemoryTodoRepo) Create(_ context.Context, title string, description *string) (dom.Todo, error) {
	if title == "" {
		return dom.Todo{}, &dom.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := r.clock.Now()
	t := dom.Todo{
		ID:          r.nextID,
		Title:       title,
		Description: cloneString(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.rows[t.ID] = t
	return copyTodo(t), nil
}

func (r *MemoryTodoRepo) GetByID(_ context.Context, id int64) (dom.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.rows[id]
	if !ok {
		return dom.Todo{}, ErrNotFound
	}
	return copyTodo(t), nil
}

func (r *MemoryTodoRepo) List(_ context.Context) ([]dom.Todo, error) {
	r.mu.RLock()
	list := make([]dom.Todo, 0, len(r.rows))
	for _, t := range r.rows {
		list = append(list, copyTodo(t))
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *MemoryTodoRepo) Update(_ context.Context, in dom.UpdateTodoInput) (dom.Todo, error) {
	if in.Title != nil && *in.Title == "" {
		return dom.Todo{}, &dom.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[in.ID]
	if !ok {
		return dom.Todo{}, ErrNotFound
	}
	in.Apply(&t)
	t.UpdatedAt = r.clock.Now()
	r.rows[t.ID] = t
	return copyTodo(t), nil
}

func (r *MemoryTodoRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

func (r *MemoryTodoRepo) Ping(context.Context) error { return nil }

func copyTodo(t dom.Todo) dom.Todo {
	t.Description = cloneString(t.Description)
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
