package domain

import "time"

// Domain entity: бизнес-объект (истина).
// Не зависит от Gin, Postgres, Redis.
type Todo struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Optional distinguishes an omitted field from one supplied as null.
// Set is false when the caller left the field out; Set with a nil Value clears it.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a supplied Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// Null returns a supplied Optional holding null.
func Null[T any]() Optional[T] { return Optional[T]{Set: true} }

type CreateTodoInput struct {
	Title       string
	Description Optional[string] // must be supplied, may be null
}

func (in CreateTodoInput) Validate() error {
	if in.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !in.Description.Set {
		return &ValidationError{Field: "description", Reason: "is required (may be null)"}
	}
	return nil
}

// UpdateTodoInput is a partial update: nil pointers and unset Optionals leave
// the stored field untouched.
type UpdateTodoInput struct {
	ID          int64
	Title       *string
	Description Optional[string]
	Completed   *bool
}

func (in UpdateTodoInput) Validate() error {
	if in.ID <= 0 {
		return &ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	if in.Title != nil && *in.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return nil
}

// Apply merges the supplied fields into t. UpdatedAt is left to the caller.
func (in UpdateTodoInput) Apply(t *Todo) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description.Set {
		if in.Description.Value == nil {
			t.Description = nil
		} else {
			d := *in.Description.Value
			t.Description = &d
		}
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
}
