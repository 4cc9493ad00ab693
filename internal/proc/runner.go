// Package proc executes external analysis binaries with a working directory,
// timeout, and bounded output capture. A failing subprocess is a normal
// Result, never an error; errors are reserved for inability to start the
// process or exceeding the timeout.
package proc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/ciforge/ciforge/internal/core"
)

const truncationMarker = "\n... [output truncated]"

// Spec describes one subprocess invocation.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Stdin   string
	Timeout time.Duration
}

// Result is the captured outcome of one invocation. Produced exactly once
// per Run call and owned by the caller.
type Result struct {
	Command         string        `json:"command"`
	ExitCode        int           `json:"exit_code"`
	Stdout          string        `json:"stdout"`
	Stderr          string        `json:"stderr"`
	Duration        time.Duration `json:"-"`
	DurationMS      int64         `json:"duration_ms"`
	TimedOut        bool          `json:"timed_out"`
	StdoutTruncated bool          `json:"stdout_truncated,omitempty"`
	StderrTruncated bool          `json:"stderr_truncated,omitempty"`
}

// Runner runs subprocesses with a shared output cap and default timeout.
type Runner struct {
	maxOutputBytes int
	defaultTimeout time.Duration
}

func NewRunner(maxOutputBytes int, defaultTimeout time.Duration) *Runner {
	if maxOutputBytes <= 0 {
		maxOutputBytes = 256 * 1024
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Minute
	}
	return &Runner{maxOutputBytes: maxOutputBytes, defaultTimeout: defaultTimeout}
}

// Run executes the spec. The returned error is non-nil only when the process
// could not be started or was cut off by the timeout; a non-zero exit code is
// reported through Result.ExitCode alone.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}
	// Reap the child shortly after cancellation so a timeout never leaves
	// an orphaned process behind.
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &boundedWriter{w: &stdoutBuf, limit: r.maxOutputBytes}
	cmd.Stderr = &boundedWriter{w: &stderrBuf, limit: r.maxOutputBytes}

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := Result{
		Command:    spec.Command + " " + strings.Join(spec.Args, " "),
		Duration:   duration,
		DurationMS: duration.Milliseconds(),
	}
	result.Stdout, result.StdoutTruncated = truncateOutput(stdoutBuf.String(), r.maxOutputBytes)
	result.Stderr, result.StderrTruncated = truncateOutput(stderrBuf.String(), r.maxOutputBytes)

	if runErr == nil {
		return result, nil
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		result.TimedOut = true
		return result, core.NewError(core.ErrCodeTimeout, "%s timed out after %s", spec.Command, timeout)
	}
	if errors.Is(execCtx.Err(), context.Canceled) {
		result.ExitCode = -1
		return result, execCtx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = -1
	return result, core.NewError(core.ErrCodeBinaryMissing, "start %s: %v", spec.Command, runErr)
}

// boundedWriter discards everything past limit; truncation is surfaced by
// truncateOutput so the marker is appended exactly once.
type boundedWriter struct {
	w     io.Writer
	limit int
	n     int
}

func (b *boundedWriter) Write(p []byte) (int, error) {
	if b.n >= b.limit+1 {
		return len(p), nil
	}
	keep := p
	if b.n+len(p) > b.limit+1 {
		keep = p[:b.limit+1-b.n]
	}
	if _, err := b.w.Write(keep); err != nil {
		return 0, err
	}
	b.n += len(keep)
	return len(p), nil
}

func truncateOutput(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	return s[:limit] + truncationMarker, true
}
