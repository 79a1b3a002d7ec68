package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyOutput is returned when the worker exits cleanly but writes nothing
// to stdout.
var ErrEmptyOutput = errors.New("worker produced no output")

// ExecutionError reports a worker process that exited with a non-zero status.
type ExecutionError struct {
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("worker exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("worker exited with code %d: %s", e.ExitCode, msg)
}

// TimeoutError reports a worker that did not exit before its deadline and was
// forcibly terminated.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("worker timed out after %s", e.Timeout)
	}
	return "worker timed out"
}

// ParseError reports stdout that did not contain a single parsable JSON
// object. Raw carries the captured output for diagnostics.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("worker output: %s", e.Reason)
}
