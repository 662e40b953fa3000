package dto

import (
	"bytes"
	"encoding/json"
	"time"

	dom "todoapi/internal/domain"
)

// Nullable decodes a JSON field that may be omitted, null, or a value.
// UnmarshalJSON only runs when the key is present, so Set records presence.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Optional converts to the domain tri-state.
func (n Nullable[T]) Optional() dom.Optional[T] {
	return dom.Optional[T]{Set: n.Set, Value: n.Value}
}

type CreateTodoRequest struct {
	Title       string           `json:"title" binding:"required,min=1"`
	Description Nullable[string] `json:"description" swaggertype:"string"` // required key, null allowed
}

func (r CreateTodoRequest) Input() dom.CreateTodoInput {
	return dom.CreateTodoInput{Title: r.Title, Description: r.Description.Optional()}
}

type UpdateTodoRequest struct {
	Title       *string          `json:"title" binding:"omitempty,min=1"`
	Description Nullable[string] `json:"description" swaggertype:"string"` // omitted = не менять, null = очистить
	Completed   *bool            `json:"completed"`
}

func (r UpdateTodoRequest) Input(id int64) dom.UpdateTodoInput {
	return dom.UpdateTodoInput{
		ID:          id,
		Title:       r.Title,
		Description: r.Description.Optional(),
		Completed:   r.Completed,
	}
}

// IDRequest is the input of getTodo and deleteTodo.
type IDRequest struct {
	ID int64 `json:"id" binding:"required,gt=0"`
}

// UpdateTodoRPCRequest is the updateTodo procedure input: the id travels in the body.
type UpdateTodoRPCRequest struct {
	ID int64 `json:"id" binding:"required,gt=0"`
	UpdateTodoRequest
}

type TodoResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListTodosResponse struct {
	Items []TodoResponse `json:"items"`
}

// RPCResponse wraps every procedure result; Result may be null.
type RPCResponse struct {
	Result any `json:"result"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func TodoToResponse(t dom.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func TodosToResponses(list []dom.Todo) []TodoResponse {
	out := make([]TodoResponse, len(list))
	for i := range list {
		out[i] = TodoToResponse(list[i])
	}
	return out
}
