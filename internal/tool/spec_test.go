package tool

import (
	"strings"
	"testing"
)

func testSpec() Spec {
	return Spec{
		Name: "demo",
		Params: []Param{
			{Name: "path", Type: TypeString, Required: true},
			{Name: "limit", Type: TypeInt, Default: 10},
			{Name: "fix", Type: TypeBool},
			{Name: "files", Type: TypeStringSlice},
		},
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	args, err := testSpec().Validate(map[string]any{"path": "src"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.String("path") != "src" {
		t.Fatalf("unexpected path: %q", args.String("path"))
	}
	if args.Int("limit") != 10 {
		t.Fatalf("expected default limit 10, got %d", args.Int("limit"))
	}
}

func TestValidateRejectsUnknownParameter(t *testing.T) {
	_, err := testSpec().Validate(map[string]any{"path": "src", "bogus": 1})
	if err == nil {
		t.Fatal("expected error for unknown parameter")
	}
	if !strings.Contains(err.Error(), "unknown parameter") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingRequired(t *testing.T) {
	_, err := testSpec().Validate(map[string]any{"limit": 5})
	if err == nil {
		t.Fatal("expected error for missing required parameter")
	}
	if !strings.Contains(err.Error(), "missing required parameter") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateTypeChecks(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		ok   bool
	}{
		{"int from json float", map[string]any{"path": "x", "limit": float64(3)}, true},
		{"fractional float rejected", map[string]any{"path": "x", "limit": 3.5}, false},
		{"string for int rejected", map[string]any{"path": "x", "limit": "3"}, false},
		{"bool ok", map[string]any{"path": "x", "fix": true}, true},
		{"slice from json", map[string]any{"path": "x", "files": []any{"a.cpp", "b.cpp"}}, true},
		{"mixed slice rejected", map[string]any{"path": "x", "files": []any{"a.cpp", 2}}, false},
	}

	for _, tc := range cases {
		args, err := testSpec().Validate(tc.raw)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s: expected validation error", tc.name)
			}
			continue
		}
		if tc.name == "int from json float" && args.Int("limit") != 3 {
			t.Fatalf("%s: expected coerced int 3, got %d", tc.name, args.Int("limit"))
		}
		if tc.name == "slice from json" {
			files := args.StringSlice("files")
			if len(files) != 2 || files[0] != "a.cpp" {
				t.Fatalf("%s: unexpected slice %v", tc.name, files)
			}
		}
	}
}
