package irt

import (
	"errors"
	"fmt"
)

// ErrShape indicates arrays whose dimensions do not line up.
var ErrShape = errors.New("shape mismatch")

// ErrValue indicates a non-finite number or an outcome outside {0,1}.
var ErrValue = errors.New("invalid value")

// InputError describes malformed input rejected at the package boundary.
type InputError struct {
	Field string // offending argument, e.g. "can_query"
	Msg   string
	Err   error // ErrShape or ErrValue
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Field, e.Msg, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

func shapeError(field, format string, args ...any) error {
	return &InputError{Field: field, Err: ErrShape, Msg: fmt.Sprintf(format, args...)}
}

func valueError(field, format string, args ...any) error {
	return &InputError{Field: field, Err: ErrValue, Msg: fmt.Sprintf(format, args...)}
}
