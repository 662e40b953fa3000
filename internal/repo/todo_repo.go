package repo

import (
	"context"
	"errors"
	"fmt"

	dom "todoapi/internal/domain"
	"todoapi/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by GetByID and Update when no row has the id.
var ErrNotFound = errors.New("todo not found")

// TodoRepo is the single-table store behind the todo operations.
// Every method is one round trip.
type TodoRepo interface {
	Create(ctx context.Context, title string, description *string) (dom.Todo, error)
	GetByID(ctx context.Context, id int64) (dom.Todo, error)
	// List returns all rows, newest created_at first.
	List(ctx context.Context) ([]dom.Todo, error)
	Update(ctx context.Context, in dom.UpdateTodoInput) (dom.Todo, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}

const todoColumns = `id, title, description, completed, created_at, updated_at`

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) Create(ctx context.Context, title string, description *string) (dom.Todo, error) {
	query := `
		INSERT INTO todos (title, description)
		VALUES ($1, $2)
		RETURNING ` + todoColumns
	t, err := scanPGTodo(r.db.QueryRow(ctx, query, title, description))
	if err != nil {
		return dom.Todo{}, pgError(err)
	}
	return t, nil
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	t, err := scanPGTodo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return dom.Todo{}, pgError(err)
	}
	return t, nil
}

func (r *PGTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]dom.Todo, 0)
	for rows.Next() {
		t, err := scanPGTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update merges the supplied fields in a single statement. $3 carries whether
// description was supplied so that null can be told apart from omitted.
// updated_at moves forward by at least a microsecond even when two updates
// land on the same NOW().
func (r *PGTodoRepo) Update(ctx context.Context, in dom.UpdateTodoInput) (dom.Todo, error) {
	query := `
		UPDATE todos SET
			title = COALESCE($2::text, title),
			description = CASE WHEN $3::boolean THEN $4::text ELSE description END,
			completed = COALESCE($5::boolean, completed),
			updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
		WHERE id = $1
		RETURNING ` + todoColumns
	t, err := scanPGTodo(r.db.QueryRow(ctx, query,
		in.ID, in.Title, in.Description.Set, in.Description.Value, in.Completed,
	))
	if err != nil {
		return dom.Todo{}, pgError(err)
	}
	return t, nil
}

func (r *PGTodoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGTodoRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanPGTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// pgError maps no-rows to ErrNotFound and a failed title check to a
// validation error; everything else passes through.
func pgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if utils.IsPGCheckViolation(err) {
		return fmt.Errorf("%w: %w", &dom.ValidationError{Field: "title", Reason: "must not be empty"}, err)
	}
	return err
}
