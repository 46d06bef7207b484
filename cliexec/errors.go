package cliexec

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout reports that a process or a stream read exceeded its deadline.
var ErrTimeout = errors.New("operation timed out")

// ProcessError reports a process that exited with a non-zero code.
type ProcessError struct {
	Stderr   string
	ExitCode int
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("process failed (exit code %d): %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("process failed (exit code %d)", e.ExitCode)
}

// TimeoutError reports a deadline violation, carrying the deadline that was
// exceeded. It matches ErrTimeout under errors.Is.
type TimeoutError struct {
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("process timed out after %s", e.Deadline)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// CLINotFoundError indicates the backend CLI binary could not be started.
type CLINotFoundError struct {
	Cause error
	Path  string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("CLI binary not found at %q: %v", e.Path, e.Cause)
}

func (e *CLINotFoundError) Unwrap() error { return e.Cause }
