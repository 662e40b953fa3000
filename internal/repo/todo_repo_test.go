package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	dom "todoapi/internal/domain"
)

// newTestRepos returns every store that runs without external services, plus
// Postgres when PG_TEST_DSN points at a server.
func newTestRepos(t *testing.T) map[string]TodoRepo {
	t.Helper()

	sqliteRepo, err := NewSQLiteTodoRepo(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("creating sqlite repo: %v", err)
	}
	t.Cleanup(func() {
		if err := sqliteRepo.Close(); err != nil {
			t.Errorf("closing sqlite repo: %v", err)
		}
	})

	repos := map[string]TodoRepo{
		"memory": NewMemoryTodoRepo(),
		"sqlite": sqliteRepo,
	}
	if pg := newPGTestRepo(t); pg != nil {
		repos["postgres"] = pg
	}
	return repos
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTodoRepoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	for name, r := range newTestRepos(t) {
		t.Run(name, func(t *testing.T) {
			created, err := r.Create(ctx, "T", nil)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if created.ID <= 0 {
				t.Fatalf("expected generated id, got %d", created.ID)
			}
			if created.Completed {
				t.Fatal("new todo must not be completed")
			}
			if !created.CreatedAt.Equal(created.UpdatedAt) {
				t.Fatalf("created_at %v != updated_at %v", created.CreatedAt, created.UpdatedAt)
			}

			got, err := r.GetByID(ctx, created.ID)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if got.Title != "T" || got.Description != nil || got.Completed {
				t.Fatalf("unexpected row: %+v", got)
			}
			if !got.CreatedAt.Equal(created.CreatedAt) {
				t.Fatalf("created_at changed on read: %v vs %v", got.CreatedAt, created.CreatedAt)
			}

			withDesc, err := r.Create(ctx, "with description", strPtr("details"))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if withDesc.Description == nil || *withDesc.Description != "details" {
				t.Fatalf("description not stored: %+v", withDesc.Description)
			}
		})
	}
}

func TestTodoRepoGetMissing(t *testing.T) {
	ctx := context.Background()
	for name, r := range newTestRepos(t) {
		t.Run(name, func(t *testing.T) {
			_, err := r.GetByID(ctx, 4242)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestTodoRepoRejectsEmptyTitle(t *testing.T) {
	ctx := context.Background()
	for name, r := range newTestRepos(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := r.Create(ctx, "", nil); !errors.Is(err, dom.ErrValidation) {
				t.Fatalf("Create with empty title: expected validation error, got %v", err)
			}
			created, err := r.Create(ctx, "keep", nil)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			_, err = r.Update(ctx, dom.UpdateTodoInput{ID: created.ID, Title: strPtr("")})
			if !errors.Is(err, dom.ErrValidation) {
				t.Fatalf("Update with empty title: expected validation error, got %v", err)
			}
		})
	}
}

func TestTodoRepoList(t *testing.T) {
	ctx := context.Background()
	for name, r := range newTestRepos(t) {
		t.Run(name, func(t *testing.T) {
			list, err := r.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if list == nil || len(list) != 0 {
				t.Fatalf("expected empty non-nil list, got %#v", list)
			}

			const n = 5
			for i := 0; i < n; i++ {
				if _, err := r.Create(ctx, "todo", nil); err != nil {
					t.Fatalf("Create: %v", err)
				}
			}
			list, err = r.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != n {
				t.Fatalf("expected %d todos, got %d", n, len(list))
			}
			for i := 0; i+1 < len(list); i++ {
				if list[i].CreatedAt.Before(list[i+1].CreatedAt) {
					t.Fatalf("list not ordered newest first at %d: %v before %v",
						i, list[i].CreatedAt, list[i+1].CreatedAt)
				}
			}
		})
	}
}

func TestTodoRepoUpdatePartial(t *testing.T) {
	ctx := context.Background()
	for name, r := range newTestRepos(t) {
		t.Run(name, func(t *testing.T) {
			orig, err := r.Create(ctx, "title", strPtr("desc"))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			// Only completed supplied.
			got, err := r.Update(ctx, dom.UpdateTodoInput{ID: orig.ID, Completed: boolPtr(true)})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if !got.Completed || got.Title != "title" || got.Description == nil || *got.Description != "desc" {
				t.Fatalf("omitted fields changed: %+v", got)
			}
			if !got.CreatedAt.Equal(orig.CreatedAt) {
				t.Fatalf("created_at changed: %v -> %v", orig.CreatedAt, got.CreatedAt)
			}
			if !got.UpdatedAt.After(orig.UpdatedAt) {
				t.Fatalf("updated_at did not advance: %v -> %v", orig.UpdatedAt, got.UpdatedAt)
			}

			// Nothing supplied still refreshes updated_at.
			prev := got
			got, err = r.Update(ctx, dom.UpdateTodoInput{ID: orig.ID})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if !got.UpdatedAt.After(prev.UpdatedAt) {
				t.Fatalf("empty update did not advance updated_at: %v -> %v", prev.UpdatedAt, got.UpdatedAt)
			}
			if got.Title != prev.Title || got.Completed != prev.Completed || *got.Description != *prev.Description {
				t.Fatalf("empty update changed fields: %+v -> %+v", prev, got)
			}

			// Explicit null clears description.
			got, err = r.Update(ctx, dom.UpdateTodoInput{ID: orig.ID, Description: dom.Null[string]()})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got.Description != nil {
				t.Fatalf("expected description cleared, got %q", *got.Description)
			}

			// Title and description replaced exactly.
			got, err = r.Update(ctx, dom.UpdateTodoInput{
				ID:          orig.ID,
				Title:       strPtr("  renamed "),
				Description: dom.Some("new"),
			})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got.Title != "  renamed " || got.Description == nil || *got.Description != "new" || !got.Completed {
				t.Fatalf("unexpected row after update: %+v", got)
			}

			if _, err := r.Update(ctx, dom.UpdateTodoInput{ID: 9999, Completed: boolPtr(true)}); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for missing id, got %v", err)
			}
		})
	}
}

func TestTodoRepoDelete(t *testing.T) {
	ctx := context.Background()
	for name, r := range newTestRepos(t) {
		t.Run(name, func(t *testing.T) {
			created, err := r.Create(ctx, "gone soon", nil)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			removed, err := r.Delete(ctx, created.ID)
			if err != nil || !removed {
				t.Fatalf("first Delete = %v, %v; want true, nil", removed, err)
			}
			removed, err = r.Delete(ctx, created.ID)
			if err != nil || removed {
				t.Fatalf("second Delete = %v, %v; want false, nil", removed, err)
			}
			if _, err := r.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected deleted row to be gone, got %v", err)
			}
		})
	}
}

func TestMemoryRepoFrozenClock(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := newMemoryTodoRepo(func() time.Time { return frozen })

	created, err := r.Create(ctx, "frozen", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.CreatedAt.Equal(frozen) {
		t.Fatalf("created_at = %v, want %v", created.CreatedAt, frozen)
	}
	updated, err := r.Update(ctx, dom.UpdateTodoInput{ID: created.ID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updated_at must advance under a frozen clock: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepo()
	desc := "original"
	created, err := r.Create(ctx, "copy", &desc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	desc = "mutated by caller"
	*created.Description = "mutated result"

	got, err := r.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if *got.Description != "original" {
		t.Fatalf("stored description aliased caller memory: %q", *got.Description)
	}
}
