package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrChatNotFound    = errors.New("chat not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrUpstream        = errors.New("upstream error")
	ErrRunNotCompleted = errors.New("run not completed")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UpstreamError wraps a failed or unusable gateway call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("assistant service: %s failed", e.Op)
	}
	return fmt.Sprintf("assistant service: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// RunNotCompletedError carries the terminal status the backend reported.
type RunNotCompletedError struct {
	Status string
	Reason string
}

func (e *RunNotCompletedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("assistant run ended with status %q: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("assistant run ended with status %q", e.Status)
}

func (e *RunNotCompletedError) Is(target error) bool { return target == ErrRunNotCompleted }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
