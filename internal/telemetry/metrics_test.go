package telemetry

import (
	"strings"
	"testing"
	"time"
)

func TestRenderPrometheus(t *testing.T) {
	IncToolCall("format_check", "success")
	IncToolCall("format_check", "failure")
	ObserveToolDuration("format_check", 200*time.Millisecond)
	IncProcTimeout()
	IncSchemaRejection()
	IncGHCLIError("run_list")
	IncPipelineRun("failure")

	out := RenderPrometheus()

	for _, want := range []string{
		`ciforge_tool_calls_total{tool="format_check",status="success"} 1`,
		`ciforge_tool_calls_total{tool="format_check",status="failure"} 1`,
		`ciforge_tool_duration_seconds_bucket{tool="format_check",le="0.5"} 1`,
		"ciforge_proc_timeouts_total 1",
		"ciforge_schema_rejections_total 1",
		`ciforge_gh_cli_errors_total{operation="run_list"} 1`,
		`ciforge_pipeline_runs_total{status="failure"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in rendered output:\n%s", want, out)
		}
	}
}
