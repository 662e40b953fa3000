package repo

import (
	"context"
	"testing"
)

func TestSQLiteStoreErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	r, err := NewSQLiteTodoRepo(ctx, ":memory:")
	if err != nil {
		t.Fatalf("creating sqlite repo: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	const closed = "sql: database is closed"
	if _, err := r.List(ctx); err == nil || err.Error() != closed {
		t.Fatalf("List on closed db: got %v, want %q", err, closed)
	}
	if _, err := r.Delete(ctx, 1); err == nil || err.Error() != closed {
		t.Fatalf("Delete on closed db: got %v, want %q", err, closed)
	}
}
