// Package workflow implements the CI-workflow tool handlers: structural
// validation of workflow YAML definitions and inspection of remote workflow
// runs through the VCS automation CLI.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/tool"
)

// ValidateDocument checks one workflow YAML document structurally and returns
// every violation found, not just the first. An unparseable document is the
// only error condition.
func ValidateDocument(name, document string) ([]tool.Finding, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(document), &raw); err != nil {
		return nil, core.NewError(core.ErrCodeYAMLInvalid, "%s: %v", name, err)
	}
	if raw == nil {
		return nil, core.NewError(core.ErrCodeYAMLInvalid, "%s: document is empty", name)
	}

	var violations []tool.Finding
	add := func(format string, args ...any) {
		violations = append(violations, tool.Finding{
			File:     name,
			Severity: "error",
			Message:  fmt.Sprintf(format, args...),
		})
	}

	// The bare key `on` resolves to boolean true under YAML 1.1 rules, so a
	// workflow trigger can land under either key.
	if !hasKey(raw, "on") && !hasKey(raw, "true") {
		add("missing 'on' trigger definition")
	}

	jobsRaw, ok := raw["jobs"]
	if !ok {
		add("missing 'jobs' definition")
		return violations, nil
	}

	jobs, ok := jobsRaw.(map[string]any)
	if !ok {
		add("'jobs' must be a mapping")
		return violations, nil
	}
	if len(jobs) == 0 {
		add("'jobs' is empty; at least one job with steps is required")
		return violations, nil
	}

	jobNames := make([]string, 0, len(jobs))
	for jobName := range jobs {
		jobNames = append(jobNames, jobName)
	}
	sort.Strings(jobNames)

	for _, jobName := range jobNames {
		job, ok := jobs[jobName].(map[string]any)
		if !ok {
			add("job %q must be a mapping", jobName)
			continue
		}

		if !hasKey(job, "runs-on") {
			add("job %q missing 'runs-on'", jobName)
		}

		hasSteps := false
		if stepsRaw, ok := job["steps"]; ok {
			steps, ok := stepsRaw.([]any)
			if !ok {
				add("job %q 'steps' must be a list", jobName)
			} else {
				hasSteps = true
				for i, stepRaw := range steps {
					if _, ok := stepRaw.(map[string]any); !ok {
						add("job %q step %d must be a mapping", jobName, i+1)
					}
				}
			}
		}
		if !hasSteps && !hasKey(job, "uses") {
			add("job %q missing 'steps'", jobName)
		}

		if containerRaw, ok := job["container"]; ok {
			if container, ok := containerRaw.(map[string]any); ok && !hasKey(container, "image") {
				add("job %q container missing 'image'", jobName)
			}
		}

		if runsOn, ok := job["runs-on"].(string); ok {
			if strings.EqualFold(runsOn, "self-hosted") && !hasKey(job, "container") {
				add("job %q uses a self-hosted runner without a container", jobName)
			}
		}
	}

	return violations, nil
}

// Validate is the validate_workflow_yaml handler. It accepts an inline
// document, a single workflow file name, or validates every *.yml/*.yaml
// under the configured workflows directory.
func (t *Tools) Validate(ctx context.Context, args tool.Args) tool.Result {
	if doc := args.String("document"); doc != "" {
		findings, err := ValidateDocument("<inline>", doc)
		if err != nil {
			return tool.Errorf("%v", err)
		}
		return validationResult(1, findings)
	}

	files, err := t.workflowFiles(args.String("file"))
	if err != nil {
		return tool.Errorf("%v", err)
	}
	if len(files) == 0 {
		return tool.Errorf("no workflow files found under %s", t.cfg.WorkflowsDir)
	}

	var findings []tool.Finding
	for _, path := range files {
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return tool.Errorf("read %s: %v", path, readErr)
		}
		name := filepath.Base(path)
		fileFindings, valErr := ValidateDocument(name, string(raw))
		if valErr != nil {
			return tool.Errorf("%v", valErr)
		}
		findings = append(findings, fileFindings...)
	}
	return validationResult(len(files), findings)
}

func validationResult(fileCount int, findings []tool.Finding) tool.Result {
	if len(findings) == 0 {
		return tool.Successf("%d workflow document(s) valid", fileCount)
	}
	return tool.Result{
		Status:   tool.StatusFailure,
		Summary:  fmt.Sprintf("%d schema violation(s) in %d workflow document(s)", len(findings), fileCount),
		Findings: findings,
	}
}

func (t *Tools) workflowFiles(name string) ([]string, error) {
	dir, err := core.ResolveUnderRoot(t.root, t.cfg.WorkflowsDir)
	if err != nil {
		return nil, err
	}

	if name != "" {
		full, err := core.ResolveUnderRoot(dir, name)
		if err != nil {
			return nil, err
		}
		if _, statErr := os.Stat(full); statErr != nil {
			return nil, core.NewError(core.ErrCodeSchemaInvalid, "workflow file not found: %s", name)
		}
		return []string{full}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, core.NewError(core.ErrCodeSchemaInvalid, "no workflows directory at %s", t.cfg.WorkflowsDir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yml", ".yaml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}
