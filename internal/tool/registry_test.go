package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ciforge/ciforge/internal/core"
)

func okHandler(_ context.Context, _ Args) Result {
	return Successf("ok")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "dup"}, okHandler)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register(Spec{Name: "dup"}, okHandler)
}

func TestRegisterAfterFreezePanics(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on post-freeze registration")
		}
	}()
	r.Register(Spec{Name: "late"}, okHandler)
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "known"}, okHandler)
	r.Freeze()

	_, err := r.Dispatch(context.Background(), Request{Tool: "missing"})
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	var coded core.CodedError
	if !errors.As(err, &coded) || coded.ErrorCode() != core.ErrCodeToolUnknown {
		t.Fatalf("expected tool_unknown code, got %v", err)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "boom"}, func(_ context.Context, _ Args) Result {
		panic("kaboom")
	})
	r.Freeze()

	res, err := r.Dispatch(context.Background(), Request{Tool: "boom"})
	if err != nil {
		t.Fatalf("panic must not surface as dispatch error: %v", err)
	}
	if res.Status != StatusError {
		t.Fatalf("expected status error, got %s", res.Status)
	}
	if !strings.Contains(res.Summary, "handler panicked") {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
}

func TestSpecsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{Name: "zeta"}, okHandler)
	r.Register(Spec{Name: "alpha"}, okHandler)
	r.Register(Spec{Name: "mid"}, okHandler)
	r.Freeze()

	specs := r.Specs()
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	if specs[0].Name != "alpha" || specs[2].Name != "zeta" {
		t.Fatalf("specs not sorted: %v", specs)
	}
}
