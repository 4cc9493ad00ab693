package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/ghcli"
	"github.com/ciforge/ciforge/internal/proc"
	"github.com/ciforge/ciforge/internal/tool"
)

// stubGH mimics the gh CLI: auth succeeds, run list reports one failed and
// one successful run, run view reports a single successful run.
const stubGH = `#!/bin/sh
if [ "$1" = "auth" ]; then
    exit 0
fi
if [ "$1" = "run" ] && [ "$2" = "list" ]; then
    cat <<'JSON'
[{"databaseId":123,"status":"completed","conclusion":"failure","workflowName":"CI","headBranch":"main","createdAt":"2026-08-20T10:00:00Z","url":"https://example.com/123"},{"databaseId":124,"status":"completed","conclusion":"success","workflowName":"CI","headBranch":"main","createdAt":"2026-08-21T10:00:00Z","url":"https://example.com/124"}]
JSON
    exit 0
fi
if [ "$1" = "run" ] && [ "$2" = "view" ]; then
    cat <<'JSON'
{"databaseId":125,"status":"completed","conclusion":"success","workflowName":"CI","headBranch":"main","createdAt":"2026-08-22T10:00:00Z","url":"https://example.com/125"}
JSON
    exit 0
fi
exit 2
`

const stubGHAuthFail = `#!/bin/sh
echo "HTTP 401: authentication failed" 1>&2
exit 1
`

func writeGHScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newRunTools(t *testing.T, ghScript string) *Tools {
	t.Helper()
	root := t.TempDir()
	runner := proc.NewRunner(0, 0)
	return NewTools(root, core.DefaultToolConfig(), ghcli.NewClient(runner, ghScript, root))
}

func TestCheckRunsReportsFailedRun(t *testing.T) {
	tools := newRunTools(t, writeGHScript(t, stubGH))

	res := tools.CheckRuns(context.Background(), tool.Args{"limit": 10})
	if res.Status != tool.StatusFailure {
		t.Fatalf("expected failure, got %s: %s", res.Status, res.Summary)
	}
	if len(res.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %+v", res.Findings)
	}
	failed := 0
	for _, f := range res.Findings {
		if f.Severity == "error" {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one failed run, got %d", failed)
	}
}

func TestCheckRunsSingleRunByID(t *testing.T) {
	tools := newRunTools(t, writeGHScript(t, stubGH))

	res := tools.CheckRuns(context.Background(), tool.Args{"run_id": 125})
	if res.Status != tool.StatusSuccess {
		t.Fatalf("expected success, got %s: %s", res.Status, res.Summary)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", res.Findings)
	}
	if !strings.Contains(res.Findings[0].Message, "run 125") {
		t.Fatalf("unexpected finding: %q", res.Findings[0].Message)
	}
}

func TestCheckRunsAuthFailure(t *testing.T) {
	tools := newRunTools(t, writeGHScript(t, stubGHAuthFail))

	res := tools.CheckRuns(context.Background(), tool.Args{})
	if res.Status != tool.StatusError {
		t.Fatalf("auth failure must be an error, got %s: %s", res.Status, res.Summary)
	}
	if !strings.Contains(res.Summary, "not authenticated") {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
}

func TestCheckRunsMissingCLI(t *testing.T) {
	tools := newRunTools(t, "no-such-gh-binary-xyz")

	res := tools.CheckRuns(context.Background(), tool.Args{})
	if res.Status != tool.StatusError {
		t.Fatalf("missing CLI must be an error, got %s", res.Status)
	}
}
