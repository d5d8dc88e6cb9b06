package domain

import (
	"errors"
	"fmt"
)

// ErrStopped is returned when the stop signal was observed at a checkpoint
var ErrStopped = errors.New("stopped")

// DispatchError is returned when the input backend fails to execute an
// action sequence. It is fatal: the UI state is indeterminate afterwards.
type DispatchError struct {
	Phase string
	Op    int
	Desc  string
	Err   error
}

// Error implements the error interface
func (e *DispatchError) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("dispatch failed at op %d (%s): %v", e.Op, e.Desc, e.Err)
	}
	return fmt.Sprintf("%s: dispatch failed at op %d (%s): %v", e.Phase, e.Op, e.Desc, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsDispatchError reports whether err carries a DispatchError
func IsDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de)
}
