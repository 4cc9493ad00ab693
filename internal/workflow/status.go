package workflow

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/ciforge/ciforge/internal/tool"
)

// ProjectStatus reports the workspace root, which external binaries are
// reachable, and whether the VCS CLI is authenticated.
func (t *Tools) ProjectStatus(ctx context.Context, _ tool.Args) tool.Result {
	binaries := []string{
		t.cfg.Formatter.Binary,
		t.cfg.Linter.Binary,
		t.cfg.Analyzer.Binary,
		t.cfg.GHBinary,
	}

	findings := make([]tool.Finding, 0, len(binaries)+2)
	findings = append(findings, tool.Finding{Severity: "info", Message: "workspace root: " + t.root})

	missing := 0
	for _, bin := range binaries {
		if path, err := exec.LookPath(bin); err == nil {
			findings = append(findings, tool.Finding{Severity: "info", Message: fmt.Sprintf("%s: available at %s", bin, path)})
		} else {
			missing++
			findings = append(findings, tool.Finding{Severity: "warning", Message: bin + ": not found in PATH"})
		}
	}

	if err := t.gh.CheckAuth(ctx); err != nil {
		findings = append(findings, tool.Finding{Severity: "warning", Message: "gh auth: " + err.Error()})
	} else {
		findings = append(findings, tool.Finding{Severity: "info", Message: "gh auth: authenticated"})
	}

	summary := "all external tools available"
	if missing > 0 {
		summary = fmt.Sprintf("%d external tool(s) missing", missing)
	}
	return tool.Result{Status: tool.StatusSuccess, Summary: summary, Findings: findings}
}
