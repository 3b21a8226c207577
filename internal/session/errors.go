package session

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	ErrCodeAlreadyActive     = "ALREADY_ACTIVE"
	ErrCodeNotActive         = "NOT_ACTIVE"
	ErrCodeLaunchFailed      = "LAUNCH_FAILED"
	ErrCodeTerminationFailed = "TERMINATION_FAILED"
)

// SessionError is returned by Manager operations.
type SessionError struct {
	Code    string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Is matches any SessionError with the same code, so the sentinels below
// work with errors.Is regardless of the cause attached.
func (e *SessionError) Is(target error) bool {
	var t *SessionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrAlreadyActive     = &SessionError{Code: ErrCodeAlreadyActive, Message: "stream is already active"}
	ErrNotActive         = &SessionError{Code: ErrCodeNotActive, Message: "stream is not active"}
	ErrLaunchFailed      = &SessionError{Code: ErrCodeLaunchFailed, Message: "failed to launch encoder"}
	ErrTerminationFailed = &SessionError{Code: ErrCodeTerminationFailed, Message: "failed to terminate encoder"}
)

// NewSessionError creates a new session error.
func NewSessionError(code, message string, cause error) *SessionError {
	return &SessionError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the session error code carried by err, or "" if none.
func CodeOf(err error) string {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
