package domain

import (
	"errors"
	"fmt"
)

// ErrValidation matches every input validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError names the input field and the constraint it violated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
