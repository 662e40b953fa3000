package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"todoapi/internal/cache"
	dom "todoapi/internal/domain"
	"todoapi/internal/repo"

	"golang.org/x/sync/singleflight"
)

// TodoService implements the five todo operations. Each validates its input
// and then makes a single store call; store errors are logged and returned
// unchanged. A missing id is reported as nil / false, never as an error.
type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	sf    singleflight.Group
	log   *slog.Logger
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache, log *slog.Logger) *TodoService {
	if log == nil {
		log = slog.Default()
	}
	return &TodoService{repo: r, cache: c, log: log.With("component", "todo_service")}
}

func (s *TodoService) Create(ctx context.Context, in dom.CreateTodoInput) (dom.Todo, error) {
	if err := in.Validate(); err != nil {
		return dom.Todo{}, err
	}
	t, err := s.repo.Create(ctx, in.Title, in.Description.Value)
	if err != nil {
		s.storeError(ctx, "createTodo", 0, err)
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Get returns the todo with id, or nil when there is none.
func (s *TodoService) Get(ctx context.Context, id int64) (*dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.storeError(ctx, "getTodo", id, err)
		return nil, err
	}
	return &t, nil
}

// List returns every todo, most recently created first. The result is never nil.
func (s *TodoService) List(ctx context.Context) ([]dom.Todo, error) {
	if s.cache == nil {
		return s.listFromStore(ctx)
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "todo cache read failed", "error", err)
		return s.listFromStore(ctx)
	}

	// Callers share a load only within one cache generation, so nobody is
	// handed a list read before a write they already saw complete. The load
	// outlives any single caller's cancellation.
	ch := s.sf.DoChan("list:"+strconv.FormatInt(gen, 10), func() (interface{}, error) {
		return s.loadList(context.WithoutCancel(ctx), gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]dom.Todo), nil
	}
}

// loadList serves the list from the cache, or reads the store and caches the
// result unless a write bumped the generation meanwhile.
func (s *TodoService) loadList(ctx context.Context, gen int64) ([]dom.Todo, error) {
	list, err := s.cache.GetList(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "todo cache read failed", "error", err)
	} else if list != nil {
		return list, nil
	}
	list, err = s.listFromStore(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.cache.SetList(ctx, gen, list)
	switch {
	case err != nil:
		s.log.WarnContext(ctx, "todo cache write failed", "error", err)
	case !stored:
		s.log.DebugContext(ctx, "todo list changed during read, not cached", "gen", gen)
	}
	return list, nil
}

func (s *TodoService) listFromStore(ctx context.Context) ([]dom.Todo, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.storeError(ctx, "getTodos", 0, err)
		return nil, err
	}
	if list == nil {
		list = []dom.Todo{}
	}
	return list, nil
}

// Update applies the supplied fields and refreshes updated_at. It returns nil
// when no todo has the id.
func (s *TodoService) Update(ctx context.Context, in dom.UpdateTodoInput) (*dom.Todo, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.repo.Update(ctx, in)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.storeError(ctx, "updateTodo", in.ID, err)
		return nil, err
	}
	s.invalidateCache(ctx)
	return &t, nil
}

// Delete removes the todo and reports whether one was removed.
func (s *TodoService) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.storeError(ctx, "deleteTodo", id, err)
		return false, err
	}
	if removed {
		s.invalidateCache(ctx)
	}
	return removed, nil
}

// Ping checks the store; used by the health endpoint.
func (s *TodoService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *TodoService) storeError(ctx context.Context, op string, id int64, err error) {
	attrs := []any{"op", op, "error", err}
	if id != 0 {
		attrs = append(attrs, "id", id)
	}
	s.log.ErrorContext(ctx, "todo store call failed", attrs...)
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WarnContext(ctx, "todo cache invalidate failed", "error", err)
	}
}
