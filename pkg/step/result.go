package step

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the pass/fail signal of a step
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// ErrCaptureFailed indicates the outcome of a command could not be read back
var ErrCaptureFailed = errors.New("failed to capture step outcome")

// StatusFromExitCode maps a process exit status to a step status
func StatusFromExitCode(exitCode int) Status {
	if exitCode == 0 {
		return StatusSuccess
	}
	return StatusFailure
}

// Result contains the outcome of a step
type Result struct {
	Title     string        `json:"title"`
	Status    Status        `json:"status"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// Success reports whether the step passed
func (r *Result) Success() bool {
	return r != nil && r.Status == StatusSuccess
}

// Execution is a command that was scheduled in a container and whose
// outcome can be queried.
type Execution interface {
	ExitCode(ctx context.Context) (int, error)
	Stdout(ctx context.Context) (string, error)
	Stderr(ctx context.Context) (string, error)
}

// Capture evaluates exec and records its outcome. A non-zero exit code is
// reported as StatusFailure, not as an error; errors are reserved for the
// case where the outcome itself cannot be read.
func Capture(ctx context.Context, title string, exec Execution, startTime time.Time) (*Result, error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: nothing was executed", ErrCaptureFailed)
	}

	// Exit code first: it forces evaluation of the command
	exitCode, err := exec.ExitCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: exit code: %v", ErrCaptureFailed, err)
	}

	stdout, err := exec.Stdout(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: stdout: %v", ErrCaptureFailed, err)
	}

	stderr, err := exec.Stderr(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: stderr: %v", ErrCaptureFailed, err)
	}

	endTime := time.Now()

	return &Result{
		Title:     title,
		Status:    StatusFromExitCode(exitCode),
		ExitCode:  exitCode,
		Stdout:    stdout,
		Stderr:    stderr,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime),
	}, nil
}
