package checks

import "testing"

func TestParseFindings(t *testing.T) {
	output := `src/main.cpp:10:5: warning: unused variable 'x'
src/main.cpp:22:1: error: expected ';'
some banner line from the tool
util.h:3:14: style: redundant cast

`
	findings, unparsed := parseFindings(output)
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d: %+v", len(findings), findings)
	}
	if unparsed != 1 {
		t.Fatalf("expected 1 unparsed line, got %d", unparsed)
	}

	f := findings[0]
	if f.File != "src/main.cpp" || f.Line != 10 || f.Col != 5 || f.Severity != "warning" {
		t.Fatalf("unexpected first finding: %+v", f)
	}
	if findings[2].Severity != "style" {
		t.Fatalf("unexpected severity: %q", findings[2].Severity)
	}
}

func TestParseFindingsEmpty(t *testing.T) {
	findings, unparsed := parseFindings("")
	if len(findings) != 0 || unparsed != 0 {
		t.Fatalf("empty output must yield nothing, got %d/%d", len(findings), unparsed)
	}
}
