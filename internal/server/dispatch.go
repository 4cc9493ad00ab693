// Package server exposes the tool registry over two transports: a
// newline-delimited JSON-RPC TCP listener and an HTTP API. Both share the
// Dispatcher, which owns validation, telemetry, audit, and logging for every
// call.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ciforge/ciforge/internal/audit"
	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/telemetry"
	"github.com/ciforge/ciforge/internal/tool"
)

// Auditor persists tool invocations. May be nil when no database is
// configured.
type Auditor interface {
	Record(ctx context.Context, rec audit.Record) (string, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Record, error)
}

// Envelope is the standard response wrapper for all tool calls, shared by
// both transports.
type Envelope struct {
	OK     bool        `json:"ok"`
	Meta   Meta        `json:"meta"`
	Result tool.Result `json:"result"`
}

// Meta carries per-call identifiers.
type Meta struct {
	TraceID    string `json:"trace_id"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Dispatcher routes validated requests to handlers and records the outcome.
type Dispatcher struct {
	registry *tool.Registry
	auditor  Auditor
	logger   *slog.Logger
}

func NewDispatcher(registry *tool.Registry, auditor Auditor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, auditor: auditor, logger: logger}
}

// Specs exposes the registry's tool specs for listing endpoints.
func (d *Dispatcher) Specs() []tool.Spec {
	return d.registry.Specs()
}

// Call dispatches one request. A returned error is always a schema-level
// rejection (unknown tool, bad arguments) that never reached a handler;
// handler outcomes, including status=error, come back in the envelope.
func (d *Dispatcher) Call(ctx context.Context, req tool.Request) (Envelope, error) {
	traceID := uuid.New().String()

	start := time.Now()
	res, err := d.registry.Dispatch(ctx, req)
	duration := time.Since(start)
	if err != nil {
		telemetry.IncSchemaRejection()
		d.logger.Warn("request rejected",
			"trace_id", traceID,
			"tool_name", req.Tool,
			"err", err,
		)
		return Envelope{}, err
	}

	telemetry.IncToolCall(req.Tool, string(res.Status))
	telemetry.ObserveToolDuration(req.Tool, duration)
	if res.Status == tool.StatusError && isTimeout(res) {
		telemetry.IncProcTimeout()
	}

	callID := ""
	if d.auditor != nil {
		id, auditErr := d.auditor.Record(ctx, audit.Record{
			TraceID:    traceID,
			Tool:       req.Tool,
			Status:     string(res.Status),
			Summary:    res.Summary,
			DurationMS: duration.Milliseconds(),
		})
		if auditErr != nil {
			d.logger.Error("audit record failed", "trace_id", traceID, "err", auditErr)
		} else {
			callID = id
		}
	}

	d.logger.Info("tool call completed",
		"trace_id", traceID,
		"tool_call_id", callID,
		"tool_name", req.Tool,
		"status", string(res.Status),
		"duration_ms", duration.Milliseconds(),
	)

	return Envelope{
		OK:     res.Status == tool.StatusSuccess,
		Meta:   Meta{TraceID: traceID, ToolCallID: callID, DurationMS: duration.Milliseconds()},
		Result: res,
	}, nil
}

func isTimeout(res tool.Result) bool {
	return res.Raw != nil && res.Raw.TimedOut
}

// IsSchemaError reports whether err is a validation-stage rejection.
func IsSchemaError(err error) bool {
	var coded core.CodedError
	if errors.As(err, &coded) {
		code := coded.ErrorCode()
		return code == core.ErrCodeSchemaInvalid || code == core.ErrCodeToolUnknown
	}
	return false
}
