package encoder

import (
	"errors"
	"fmt"
)

// ErrorKind classifies launcher failures.
type ErrorKind string

// Error kinds.
const (
	SpawnFailed     ErrorKind = "SPAWN_FAILED"
	TerminateFailed ErrorKind = "TERMINATE_FAILED"
)

// ErrForeignHandle is returned when Terminate is given a handle this
// launcher did not create.
var ErrForeignHandle = errors.New("handle was not created by this launcher")

// LaunchError reports that the encoder could not be spawned.
type LaunchError struct {
	Kind   ErrorKind
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// TerminateError reports that the encoder could not be signalled.
type TerminateError struct {
	Kind ErrorKind
	PID  int
	Err  error
}

func (e *TerminateError) Error() string {
	return fmt.Sprintf("%s: pid %d: %v", e.Kind, e.PID, e.Err)
}

func (e *TerminateError) Unwrap() error {
	return e.Err
}
