package server

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ciforge/ciforge/internal/tool"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry() *tool.Registry {
	reg := tool.NewRegistry()
	reg.Register(tool.Spec{
		Name:   "echo",
		Params: []tool.Param{{Name: "msg", Type: tool.TypeString, Required: true}},
	}, func(_ context.Context, args tool.Args) tool.Result {
		return tool.Successf("echo: %s", args.String("msg"))
	})
	reg.Register(tool.Spec{Name: "fails"}, func(_ context.Context, _ tool.Args) tool.Result {
		return tool.Result{Status: tool.StatusFailure, Summary: "found issues"}
	})
	reg.Freeze()
	return reg
}

func TestCallSuccessEnvelope(t *testing.T) {
	d := NewDispatcher(testRegistry(), nil, discardLogger())

	env, err := d.Call(context.Background(), tool.Request{
		Tool:      "echo",
		Arguments: map[string]any{"msg": "hi"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.OK {
		t.Fatal("expected ok envelope")
	}
	if env.Meta.TraceID == "" {
		t.Fatal("expected trace id")
	}
	if env.Result.Summary != "echo: hi" {
		t.Fatalf("unexpected summary: %q", env.Result.Summary)
	}
}

func TestCallFailureIsNotOK(t *testing.T) {
	d := NewDispatcher(testRegistry(), nil, discardLogger())

	env, err := d.Call(context.Background(), tool.Request{Tool: "fails"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.OK {
		t.Fatal("failure result must not be ok")
	}
	if env.Result.Status != tool.StatusFailure {
		t.Fatalf("unexpected status: %s", env.Result.Status)
	}
}

func TestCallUnknownToolIsSchemaError(t *testing.T) {
	d := NewDispatcher(testRegistry(), nil, discardLogger())

	_, err := d.Call(context.Background(), tool.Request{Tool: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !IsSchemaError(err) {
		t.Fatalf("expected schema-level rejection, got %v", err)
	}
}

func TestCallBadArgumentsIsSchemaError(t *testing.T) {
	d := NewDispatcher(testRegistry(), nil, discardLogger())

	_, err := d.Call(context.Background(), tool.Request{
		Tool:      "echo",
		Arguments: map[string]any{"msg": 42},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !IsSchemaError(err) {
		t.Fatalf("expected schema-level rejection, got %v", err)
	}
}
