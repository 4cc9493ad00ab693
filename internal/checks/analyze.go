package checks

import (
	"context"
	"fmt"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/proc"
	"github.com/ciforge/ciforge/internal/tool"
)

// Lint invokes the configured linter over the file set.
func (c *Checker) Lint(ctx context.Context, args tool.Args) tool.Result {
	return c.runAnalyzer(ctx, args, "linter", c.cfg.Linter)
}

// Analyze invokes the configured deep static analyzer over the file set.
func (c *Checker) Analyze(ctx context.Context, args tool.Args) tool.Result {
	return c.runAnalyzer(ctx, args, "analyzer", c.cfg.Analyzer)
}

// runAnalyzer is the shared lint/analyze body: one subprocess over the whole
// file set, output parsed into findings line by line. cppcheck reports on
// stderr and clang-tidy on stdout, so both streams are parsed.
func (c *Checker) runAnalyzer(ctx context.Context, args tool.Args, label string, cmd core.CommandConfig) tool.Result {
	files, err := c.fileSet(args)
	if err != nil {
		return tool.Errorf("resolve file set: %v", err)
	}
	if len(files) == 0 {
		return tool.Successf("no files matched")
	}

	res, runErr := c.runner.Run(ctx, proc.Spec{
		Command: cmd.Binary,
		Args:    append(append([]string{}, cmd.Args...), files...),
		Dir:     c.root,
		Timeout: c.cfg.Timeout(),
	})
	if runErr != nil {
		return tool.Result{
			Status:  tool.StatusError,
			Summary: fmt.Sprintf("%s: %v", label, runErr),
			Raw:     &res,
		}
	}

	findings, unparsedOut := parseFindings(res.Stdout)
	errFindings, unparsedErr := parseFindings(res.Stderr)
	findings = append(findings, errFindings...)
	unparsed := unparsedOut + unparsedErr

	summary := fmt.Sprintf("%s reported %d finding(s) across %d file(s)", label, len(findings), len(files))
	if unparsed > 0 {
		summary += fmt.Sprintf(" (%d unparsed output line(s) skipped)", unparsed)
	}

	status := tool.StatusSuccess
	if len(findings) > 0 {
		status = tool.StatusFailure
	}
	return tool.Result{Status: status, Summary: summary, Findings: findings, Raw: &res}
}
