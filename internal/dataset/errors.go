package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks computations whose inputs leave the result undefined
	// (zero rows, zero columns, a column of the wrong kind).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownColumn indicates a column name that is not part of the dataset.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrEmptyDataset indicates an upload without a header row or data columns.
	ErrEmptyDataset = errors.New("empty dataset")
)

// InputError describes why an operation rejected its input. It matches
// ErrInvalidInput with errors.Is.
type InputError struct {
	Op     string
	Reason string
}

func (e *InputError) Error() string {
	if e == nil {
		return ErrInvalidInput.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("%s: invalid input: %s", e.Op, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid builds an *InputError for op with a formatted reason.
func Invalid(op, format string, args ...any) error {
	return &InputError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// ColumnError reports a column lookup failure and matches ErrUnknownColumn.
type ColumnError struct {
	Name string
}

func (e *ColumnError) Error() string { return fmt.Sprintf("unknown column %q", e.Name) }

func (e *ColumnError) Is(target error) bool { return target == ErrUnknownColumn }
