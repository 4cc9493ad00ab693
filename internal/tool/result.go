// Package tool defines the fixed tool registry, the request validation layer,
// and the common result shape every handler returns.
package tool

import (
	"fmt"

	"github.com/ciforge/ciforge/internal/proc"
)

// Status is the three-way outcome of a tool invocation. The distinction is
// load-bearing: the pipeline's short-circuit rule and exit-code mapping both
// depend on it.
type Status string

const (
	// StatusSuccess: the operation ran and found no issues.
	StatusSuccess Status = "success"
	// StatusFailure: the operation ran correctly and found issues.
	StatusFailure Status = "failure"
	// StatusError: the operation itself could not run.
	StatusError Status = "error"
)

// Finding is one structured issue reported by a check.
type Finding struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Col      int    `json:"col,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message"`
}

// Result is the common shape every handler returns. Report is set only by
// the composite pipeline tool and carries its per-stage breakdown.
type Result struct {
	Status   Status       `json:"status"`
	Summary  string       `json:"summary"`
	Findings []Finding    `json:"findings,omitempty"`
	Raw      *proc.Result `json:"raw_output,omitempty"`
	Report   any          `json:"report,omitempty"`
}

// Errorf builds an error-status result with a formatted summary.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, Summary: fmt.Sprintf(format, args...)}
}

// Successf builds a success-status result with a formatted summary.
func Successf(format string, args ...any) Result {
	return Result{Status: StatusSuccess, Summary: fmt.Sprintf(format, args...)}
}
