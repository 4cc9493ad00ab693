// Package pipeline runs the fixed, ordered sequence of CI-stage tools as one
// logical operation and aggregates their results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ciforge/ciforge/internal/telemetry"
	"github.com/ciforge/ciforge/internal/tool"
)

// Stage is one named step of the pipeline.
type Stage struct {
	Name    string
	Handler tool.Handler
}

// StepResult pairs a stage name with its outcome.
type StepResult struct {
	Tool       string      `json:"tool"`
	Result     tool.Result `json:"result"`
	DurationMS int64       `json:"duration_ms"`
}

// Report is the aggregate outcome of one pipeline invocation. Built once per
// call and discarded after the response is sent.
type Report struct {
	Steps  []StepResult `json:"steps"`
	Status tool.Status  `json:"status"`
}

// Orchestrator owns the stage order and the per-workspace exclusion gate.
// Stages run sequentially; later stages may rely on earlier stages' side
// effects. Concurrent pipeline calls against the same workspace root are
// serialized by mu.
type Orchestrator struct {
	stages []Stage
	logger *slog.Logger

	mu sync.Mutex
}

func NewOrchestrator(stages []Stage, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{stages: stages, logger: logger}
}

// Run folds over the stage list in declared order. The continuation rule is
// the pipeline's defining contract: continue on failure, abort the remaining
// stages on error. A real finding must not hide behind a later crash, but an
// infrastructure fault makes the remaining stages meaningless.
func (o *Orchestrator) Run(ctx context.Context, args tool.Args) Report {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := Report{Status: tool.StatusSuccess}
	for _, stage := range o.stages {
		start := time.Now()
		res := stage.Handler(ctx, args)
		duration := time.Since(start)

		report.Steps = append(report.Steps, StepResult{
			Tool:       stage.Name,
			Result:     res,
			DurationMS: duration.Milliseconds(),
		})
		o.logger.Info("pipeline stage finished",
			"stage", stage.Name,
			"status", string(res.Status),
			"duration_ms", duration.Milliseconds(),
		)

		switch res.Status {
		case tool.StatusError:
			report.Status = tool.StatusError
			return report
		case tool.StatusFailure:
			report.Status = tool.StatusFailure
		}
	}
	return report
}

// Handler adapts the orchestrator to the common tool signature for registry
// dispatch. The full report rides in Result.Report.
func (o *Orchestrator) Handler(ctx context.Context, args tool.Args) tool.Result {
	report := o.Run(ctx, args)
	telemetry.IncPipelineRun(string(report.Status))

	counts := map[tool.Status]int{}
	for _, step := range report.Steps {
		counts[step.Result.Status]++
	}

	summary := fmt.Sprintf("pipeline %s: %d stage(s) run, %d failed, %d errored",
		report.Status, len(report.Steps), counts[tool.StatusFailure], counts[tool.StatusError])
	if skipped := len(o.stages) - len(report.Steps); skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", skipped)
	}

	return tool.Result{Status: report.Status, Summary: summary, Report: report}
}
