package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dom "todoapi/internal/domain"
	"todoapi/migrations"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type sqliteTodoRow struct {
	ID          int64      `db:"id"`
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	Completed   bool       `db:"completed"`
	CreatedAt   sqliteTime `db:"created_at"`
	UpdatedAt   sqliteTime `db:"updated_at"`
}

// sqliteTime scans a timestamp whether the driver hands back a time.Time
// (declared DATETIME column) or its text form (RETURNING expressions).
type sqliteTime struct{ time.Time }

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("sqlite timestamp: unsupported type %T", src)
	}
}

func (t *sqliteTime) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("sqlite timestamp: cannot parse %q", s)
}

func (r sqliteTodoRow) todo() dom.Todo {
	return dom.Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

// SQLiteTodoRepo stores todos in a local SQLite database (modernc, no cgo).
// Timestamps are produced in Go so that updated_at strictly increases.
type SQLiteTodoRepo struct {
	db    *sqlx.DB
	clock *monotonicClock
}

// NewSQLiteTodoRepo opens (or creates) the database at path, enables WAL mode
// and applies pending migrations. ":memory:" gives a private in-memory store.
func NewSQLiteTodoRepo(ctx context.Context, path string) (*SQLiteTodoRepo, error) {
	db, err := sqlx.Open("sqlite", path+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// An in-memory database lives on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := migrations.Up(ctx, db.DB, "sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &SQLiteTodoRepo{db: db, clock: newMonotonicClock(nil)}, nil
}

func (r *SQLiteTodoRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteTodoRepo) Create(ctx context.Context, title string, description *string) (dom.Todo, error) {
	now := r.clock.Now()
	var row sqliteTodoRow
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO todos (title, description, completed, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
		RETURNING `+todoColumns,
		title, description, now, now,
	).StructScan(&row)
	if err != nil {
		return dom.Todo{}, sqliteError(err)
	}
	return row.todo(), nil
}

func (r *SQLiteTodoRepo) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	var row sqliteTodoRow
	err := r.db.GetContext(ctx, &row, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	if err != nil {
		return dom.Todo{}, sqliteError(err)
	}
	return row.todo(), nil
}

func (r *SQLiteTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	var rows []sqliteTodoRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+todoColumns+` FROM todos ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	list := make([]dom.Todo, len(rows))
	for i := range rows {
		list[i] = rows[i].todo()
	}
	return list, nil
}

func (r *SQLiteTodoRepo) Update(ctx context.Context, in dom.UpdateTodoInput) (dom.Todo, error) {
	var row sqliteTodoRow
	err := r.db.QueryRowxContext(ctx, `
		UPDATE todos SET
			title = COALESCE(?, title),
			description = CASE WHEN ? THEN ? ELSE description END,
			completed = COALESCE(?, completed),
			updated_at = ?
		WHERE id = ?
		RETURNING `+todoColumns,
		in.Title, in.Description.Set, in.Description.Value, in.Completed, r.clock.Now(), in.ID,
	).StructScan(&row)
	if err != nil {
		return dom.Todo{}, sqliteError(err)
	}
	return row.todo(), nil
}

func (r *SQLiteTodoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteTodoRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func sqliteError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) && isCheckViolation(se) {
		return fmt.Errorf("%w: %w", &dom.ValidationError{Field: "title", Reason: "must not be empty"}, err)
	}
	return err
}

func isCheckViolation(se *sqlite.Error) bool {
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_CHECK {
		return true
	}
	// Extended result codes may be off; fall back to the primary code.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "CHECK constraint failed")
}
