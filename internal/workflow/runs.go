package workflow

import (
	"context"
	"fmt"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/ghcli"
	"github.com/ciforge/ciforge/internal/tool"
)

// Tools bundles the workflow handlers' shared state.
type Tools struct {
	root string
	cfg  core.ToolConfig
	gh   *ghcli.Client
}

func NewTools(root string, cfg core.ToolConfig, gh *ghcli.Client) *Tools {
	return &Tools{root: root, cfg: cfg, gh: gh}
}

// CheckRuns is the check_workflow_runs handler. Credential or CLI failure is
// an error; a run that exists but concluded with failure is a failure; a
// clean run set is success.
func (t *Tools) CheckRuns(ctx context.Context, args tool.Args) tool.Result {
	if err := t.gh.CheckAuth(ctx); err != nil {
		return tool.Errorf("%v", err)
	}

	if runID := args.Int("run_id"); runID > 0 {
		run, err := t.gh.GetRun(ctx, int64(runID))
		if err != nil {
			return tool.Errorf("%v", err)
		}
		return runsResult([]ghcli.WorkflowRun{*run})
	}

	runs, err := t.gh.ListRuns(ctx, args.String("workflow"), args.Int("limit"))
	if err != nil {
		return tool.Errorf("%v", err)
	}
	if len(runs) == 0 {
		return tool.Successf("no workflow runs found")
	}
	return runsResult(runs)
}

func runsResult(runs []ghcli.WorkflowRun) tool.Result {
	findings := make([]tool.Finding, 0, len(runs))
	failed := 0
	for _, run := range runs {
		severity := "info"
		if run.Conclusion == "failure" {
			severity = "error"
			failed++
		}
		findings = append(findings, tool.Finding{
			Severity: severity,
			Message:  fmt.Sprintf("run %d %s (%s): status=%s conclusion=%s", run.ID, run.Workflow, run.Branch, run.Status, run.Conclusion),
		})
	}

	if failed > 0 {
		return tool.Result{
			Status:   tool.StatusFailure,
			Summary:  fmt.Sprintf("%d of %d workflow run(s) failed", failed, len(runs)),
			Findings: findings,
		}
	}
	return tool.Result{
		Status:   tool.StatusSuccess,
		Summary:  fmt.Sprintf("%d workflow run(s), none failed", len(runs)),
		Findings: findings,
	}
}
