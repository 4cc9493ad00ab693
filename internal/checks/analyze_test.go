package checks

import (
	"context"
	"strings"
	"testing"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/proc"
	"github.com/ciforge/ciforge/internal/tool"
)

// stubAnalyzer reports one finding per file on stderr, the way cppcheck does.
const stubAnalyzer = `#!/bin/sh
for f in "$@"; do
    echo "$f:1:1: warning: stub finding" 1>&2
done
exit 1
`

const stubCleanAnalyzer = `#!/bin/sh
exit 0
`

func newAnalyzerChecker(t *testing.T, root, analyzerPath string) *Checker {
	t.Helper()
	cfg := core.DefaultToolConfig()
	cfg.Linter = core.CommandConfig{Binary: analyzerPath}
	cfg.Analyzer = core.CommandConfig{Binary: analyzerPath}
	cfg.TimeoutSeconds = 10
	return NewChecker(root, proc.NewRunner(cfg.MaxOutputBytes, cfg.Timeout()), cfg)
}

func TestLintParsesStderrFindings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cpp", "")
	writeFile(t, root, "b.cpp", "")
	analyzer := writeScript(t, t.TempDir(), "lint", stubAnalyzer)

	c := newAnalyzerChecker(t, root, analyzer)
	res := c.Lint(context.Background(), tool.Args{})
	if res.Status != tool.StatusFailure {
		t.Fatalf("expected failure, got %s: %s", res.Status, res.Summary)
	}
	if len(res.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %+v", res.Findings)
	}
	if res.Findings[0].Severity != "warning" {
		t.Fatalf("unexpected severity: %q", res.Findings[0].Severity)
	}
}

func TestAnalyzeCleanRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cpp", "")
	analyzer := writeScript(t, t.TempDir(), "analyze", stubCleanAnalyzer)

	c := newAnalyzerChecker(t, root, analyzer)
	res := c.Analyze(context.Background(), tool.Args{})
	if res.Status != tool.StatusSuccess {
		t.Fatalf("expected success, got %s: %s", res.Status, res.Summary)
	}
	if len(res.Findings) != 0 {
		t.Fatalf("clean run must have no findings: %+v", res.Findings)
	}
}

func TestAnalyzeMissingBinary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cpp", "")

	c := newAnalyzerChecker(t, root, "no-such-analyzer-xyz")
	res := c.Analyze(context.Background(), tool.Args{})
	if res.Status != tool.StatusError {
		t.Fatalf("expected error, got %s", res.Status)
	}
	if !strings.Contains(res.Summary, "analyzer") {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
}
