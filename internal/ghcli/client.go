// Package ghcli wraps the GitHub automation CLI. The CLI is treated as an
// opaque subprocess: invoke with args, parse stdout and exit code. Auth comes
// from the externally supplied GH_TOKEN/GITHUB_TOKEN or a prior gh login.
package ghcli

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/proc"
	"github.com/ciforge/ciforge/internal/telemetry"
)

const runListFields = "databaseId,status,conclusion,workflowName,headBranch,createdAt,url"

// WorkflowRun is one remote CI run as reported by the CLI.
type WorkflowRun struct {
	ID         int64     `json:"databaseId"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	Workflow   string    `json:"workflowName"`
	Branch     string    `json:"headBranch"`
	CreatedAt  time.Time `json:"createdAt"`
	URL        string    `json:"url"`
}

type Client struct {
	runner *proc.Runner
	binary string
	dir    string
}

func NewClient(runner *proc.Runner, binary, workDir string) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "gh"
	}
	return &Client{runner: runner, binary: binary, dir: workDir}
}

// CheckAuth verifies the CLI is installed and authenticated. A missing binary
// or rejected credential is a coded error the handler maps to status=error.
func (c *Client) CheckAuth(ctx context.Context) error {
	res, err := c.runner.Run(ctx, proc.Spec{Command: c.binary, Args: []string{"auth", "status"}, Dir: c.dir})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		telemetry.IncGHCLIError("auth_status")
		return core.NewError(core.ErrCodeAuthFailed,
			"gh is not authenticated: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// ListRuns lists recent workflow runs, optionally filtered to one workflow.
func (c *Client) ListRuns(ctx context.Context, workflow string, limit int) ([]WorkflowRun, error) {
	if limit <= 0 {
		limit = 10
	}
	args := []string{"run", "list", "--limit", strconv.Itoa(limit), "--json", runListFields}
	if workflow != "" {
		args = append(args, "--workflow", workflow)
	}
	return c.runJSON(ctx, args)
}

// GetRun describes a single run by its identifier.
func (c *Client) GetRun(ctx context.Context, runID int64) (*WorkflowRun, error) {
	args := []string{"run", "view", strconv.FormatInt(runID, 10), "--json", runListFields}
	res, err := c.runner.Run(ctx, proc.Spec{Command: c.binary, Args: args, Dir: c.dir})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, cliError("run_view", res)
	}
	var run WorkflowRun
	if err := json.Unmarshal([]byte(res.Stdout), &run); err != nil {
		return nil, core.NewError(core.ErrCodeInternal, "decode gh run view output: %v", err)
	}
	return &run, nil
}

func (c *Client) runJSON(ctx context.Context, args []string) ([]WorkflowRun, error) {
	res, err := c.runner.Run(ctx, proc.Spec{Command: c.binary, Args: args, Dir: c.dir})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, cliError("run_list", res)
	}
	runs := make([]WorkflowRun, 0)
	if err := json.Unmarshal([]byte(res.Stdout), &runs); err != nil {
		return nil, core.NewError(core.ErrCodeInternal, "decode gh run list output: %v", err)
	}
	return runs, nil
}

func cliError(operation string, res proc.Result) error {
	telemetry.IncGHCLIError(operation)
	stderr := strings.TrimSpace(res.Stderr)
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "auth") || strings.Contains(lower, "credential") || strings.Contains(lower, "401") {
		return core.NewError(core.ErrCodeAuthFailed, "gh rejected credentials: %s", stderr)
	}
	return core.NewError(core.ErrCodeInternal, "gh exited %d: %s", res.ExitCode, stderr)
}
