package mesh

import (
	"errors"
	"fmt"
)

// Error kinds, matchable with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrCapacity   = errors.New("capacity exceeded")
)

// ValidationError reports an input that violates a documented constraint.
// It is always returned before any output buffer is allocated.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CapacityError reports a derived count that does not fit the index type.
type CapacityError struct {
	What  string
	Count int64
	Limit int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s count %d exceeds limit %d", e.What, e.Count, e.Limit)
}

// Is makes every CapacityError match ErrCapacity.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

func invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
