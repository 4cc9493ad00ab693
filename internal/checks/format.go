package checks

import (
	"context"
	"fmt"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/proc"
	"github.com/ciforge/ciforge/internal/tool"
)

// Checker holds the shared state for all code-quality handlers: the
// workspace root, the subprocess runner, and the tool configuration.
type Checker struct {
	root   string
	runner *proc.Runner
	cfg    core.ToolConfig
}

func NewChecker(root string, runner *proc.Runner, cfg core.ToolConfig) *Checker {
	return &Checker{root: root, runner: runner, cfg: cfg}
}

// FileSetParams is the parameter set shared by every file-scoped tool.
func FileSetParams() []tool.Param {
	return []tool.Param{
		{Name: "files", Type: tool.TypeStringSlice},
		{Name: "dir", Type: tool.TypeString, Default: "."},
	}
}

func (c *Checker) fileSet(args tool.Args) ([]string, error) {
	return resolveFileSet(c.root, args.StringSlice("files"), args.String("dir"), c.cfg.Extensions)
}

// FormatCheck runs the formatter in check mode over the file set. Each
// non-conforming file becomes one finding; the diff itself stays in the raw
// output of the last failing invocation.
func (c *Checker) FormatCheck(ctx context.Context, args tool.Args) tool.Result {
	files, err := c.fileSet(args)
	if err != nil {
		return tool.Errorf("resolve file set: %v", err)
	}
	if len(files) == 0 {
		return tool.Successf("no files matched")
	}

	nonConforming, raw, err := c.checkFiles(ctx, files)
	if err != nil {
		return tool.Result{Status: tool.StatusError, Summary: err.Error(), Raw: raw}
	}
	if len(nonConforming) == 0 {
		return tool.Successf("%d file(s) formatted correctly", len(files))
	}

	findings := make([]tool.Finding, 0, len(nonConforming))
	for _, f := range nonConforming {
		findings = append(findings, tool.Finding{File: f, Message: "file needs reformatting"})
	}
	return tool.Result{
		Status:   tool.StatusFailure,
		Summary:  fmt.Sprintf("%d of %d file(s) need reformatting", len(nonConforming), len(files)),
		Findings: findings,
		Raw:      raw,
	}
}

// FormatFix rewrites non-conforming files in place and reports the files it
// changed. Fixing then checking the same file set always yields success.
func (c *Checker) FormatFix(ctx context.Context, args tool.Args) tool.Result {
	files, err := c.fileSet(args)
	if err != nil {
		return tool.Errorf("resolve file set: %v", err)
	}
	if len(files) == 0 {
		return tool.Successf("no files matched")
	}

	nonConforming, raw, err := c.checkFiles(ctx, files)
	if err != nil {
		return tool.Result{Status: tool.StatusError, Summary: err.Error(), Raw: raw}
	}
	if len(nonConforming) == 0 {
		return tool.Successf("%d file(s) already formatted", len(files))
	}

	findings := make([]tool.Finding, 0, len(nonConforming))
	for _, f := range nonConforming {
		res, runErr := c.runner.Run(ctx, proc.Spec{
			Command: c.cfg.Formatter.Binary,
			Args:    append(append([]string{}, c.cfg.Formatter.FixArgs...), f),
			Dir:     c.root,
			Timeout: c.cfg.Timeout(),
		})
		if runErr != nil {
			resCopy := res
			return tool.Result{
				Status:  tool.StatusError,
				Summary: fmt.Sprintf("formatter on %s: %v", f, runErr),
				Raw:     &resCopy,
			}
		}
		if res.ExitCode != 0 {
			return tool.Result{
				Status:  tool.StatusError,
				Summary: fmt.Sprintf("formatter exited %d rewriting %s", res.ExitCode, f),
				Raw:     &res,
			}
		}
		raw = &res
		findings = append(findings, tool.Finding{File: f, Message: "reformatted"})
	}

	return tool.Result{
		Status:   tool.StatusSuccess,
		Summary:  fmt.Sprintf("reformatted %d of %d file(s)", len(findings), len(files)),
		Findings: findings,
		Raw:      raw,
	}
}

// checkFiles runs the formatter in check mode per file and returns the files
// that need reformatting, plus the raw output of the last failing run. On a
// start failure or timeout the captured result is returned alongside the
// error so callers can surface it (and its TimedOut flag) in the tool result.
func (c *Checker) checkFiles(ctx context.Context, files []string) ([]string, *proc.Result, error) {
	var nonConforming []string
	var raw *proc.Result
	for _, f := range files {
		res, err := c.runner.Run(ctx, proc.Spec{
			Command: c.cfg.Formatter.Binary,
			Args:    append(append([]string{}, c.cfg.Formatter.CheckArgs...), f),
			Dir:     c.root,
			Timeout: c.cfg.Timeout(),
		})
		if err != nil {
			resCopy := res
			return nil, &resCopy, fmt.Errorf("formatter on %s: %w", f, err)
		}
		if res.ExitCode != 0 {
			resCopy := res
			raw = &resCopy
			nonConforming = append(nonConforming, f)
		}
	}
	return nonConforming, raw, nil
}
