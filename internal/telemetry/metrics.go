// Package telemetry keeps in-process counters and duration histograms for
// tool dispatch, rendered in Prometheus text format at /metrics.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var defaultRegistry = newRegistry()

type registry struct {
	mu                  sync.Mutex
	toolCalls           map[string]map[string]int64
	toolDurationBuckets map[string][]int64
	procTimeouts        int64
	ghCLIErrors         map[string]int64
	pipelineRuns        map[string]int64
	schemaRejections    int64
}

func newRegistry() *registry {
	return &registry{
		toolCalls:           make(map[string]map[string]int64),
		toolDurationBuckets: make(map[string][]int64),
		ghCLIErrors:         make(map[string]int64),
		pipelineRuns:        make(map[string]int64),
	}
}

func IncToolCall(toolName, status string) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.toolCalls[toolName]; !ok {
		defaultRegistry.toolCalls[toolName] = make(map[string]int64)
	}
	defaultRegistry.toolCalls[toolName][status]++
}

func ObserveToolDuration(toolName string, d time.Duration) {
	buckets := []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}
	sec := d.Seconds()

	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.toolDurationBuckets[toolName]; !ok {
		defaultRegistry.toolDurationBuckets[toolName] = make([]int64, len(buckets)+1)
	}
	idx := len(buckets)
	for i, b := range buckets {
		if sec <= b {
			idx = i
			break
		}
	}
	defaultRegistry.toolDurationBuckets[toolName][idx]++
}

func IncProcTimeout() {
	defaultRegistry.mu.Lock()
	defaultRegistry.procTimeouts++
	defaultRegistry.mu.Unlock()
}

func IncGHCLIError(operation string) {
	defaultRegistry.mu.Lock()
	defaultRegistry.ghCLIErrors[operation]++
	defaultRegistry.mu.Unlock()
}

func IncPipelineRun(status string) {
	defaultRegistry.mu.Lock()
	defaultRegistry.pipelineRuns[status]++
	defaultRegistry.mu.Unlock()
}

func IncSchemaRejection() {
	defaultRegistry.mu.Lock()
	defaultRegistry.schemaRejections++
	defaultRegistry.mu.Unlock()
}

func RenderPrometheus() string {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	var sb strings.Builder

	sb.WriteString("# TYPE ciforge_tool_calls_total counter\n")
	for _, toolName := range sortedKeys(defaultRegistry.toolCalls) {
		for _, status := range sortedKeys(defaultRegistry.toolCalls[toolName]) {
			sb.WriteString(fmt.Sprintf("ciforge_tool_calls_total{tool=\"%s\",status=\"%s\"} %d\n", toolName, status, defaultRegistry.toolCalls[toolName][status]))
		}
	}

	sb.WriteString("# TYPE ciforge_tool_duration_seconds_bucket counter\n")
	bucketLabels := []string{"0.1", "0.5", "1", "2", "5", "10", "30", "60", "+Inf"}
	for _, toolName := range sortedKeys(defaultRegistry.toolDurationBuckets) {
		counts := defaultRegistry.toolDurationBuckets[toolName]
		for i, v := range counts {
			sb.WriteString(fmt.Sprintf("ciforge_tool_duration_seconds_bucket{tool=\"%s\",le=\"%s\"} %d\n", toolName, bucketLabels[i], v))
		}
	}

	sb.WriteString("# TYPE ciforge_proc_timeouts_total counter\n")
	sb.WriteString(fmt.Sprintf("ciforge_proc_timeouts_total %d\n", defaultRegistry.procTimeouts))

	sb.WriteString("# TYPE ciforge_schema_rejections_total counter\n")
	sb.WriteString(fmt.Sprintf("ciforge_schema_rejections_total %d\n", defaultRegistry.schemaRejections))

	sb.WriteString("# TYPE ciforge_gh_cli_errors_total counter\n")
	for _, op := range sortedKeys(defaultRegistry.ghCLIErrors) {
		sb.WriteString(fmt.Sprintf("ciforge_gh_cli_errors_total{operation=\"%s\"} %d\n", op, defaultRegistry.ghCLIErrors[op]))
	}

	sb.WriteString("# TYPE ciforge_pipeline_runs_total counter\n")
	for _, status := range sortedKeys(defaultRegistry.pipelineRuns) {
		sb.WriteString(fmt.Sprintf("ciforge_pipeline_runs_total{status=\"%s\"} %d\n", status, defaultRegistry.pipelineRuns[status]))
	}

	return sb.String()
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
