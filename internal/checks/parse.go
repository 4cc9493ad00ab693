package checks

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ciforge/ciforge/internal/tool"
)

// findingLine matches the common analyzer output form
// "path:line:col: severity: message". clang-tidy and cppcheck (with the
// {file}:{line}:{column}: {severity}: {message} template) both emit it.
var findingLine = regexp.MustCompile(`^(.+?):(\d+):(\d+):\s*(\w+):\s*(.+)$`)

// parseFindings converts line-oriented analyzer output into structured
// findings. Lines that do not match are skipped and counted, never fatal.
func parseFindings(output string) ([]tool.Finding, int) {
	var findings []tool.Finding
	unparsed := 0

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := findingLine.FindStringSubmatch(line)
		if m == nil {
			unparsed++
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		colNo, _ := strconv.Atoi(m[3])
		findings = append(findings, tool.Finding{
			File:     m[1],
			Line:     lineNo,
			Col:      colNo,
			Severity: strings.ToLower(m[4]),
			Message:  m[5],
		})
	}
	return findings, unparsed
}
