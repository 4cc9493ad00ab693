package tool

import (
	"context"
	"fmt"
	"sort"

	"github.com/ciforge/ciforge/internal/core"
)

// Handler implements a single tool. It only ever receives validated args.
type Handler func(ctx context.Context, args Args) Result

// Registry is the fixed mapping from tool name to spec and handler. All
// registration happens at startup; Freeze is called before the accept loop
// begins and registration after that panics. Lookups after Freeze need no
// locking because the map is read-only.
type Registry struct {
	frozen bool
	tools  map[string]entry
}

type entry struct {
	spec    Spec
	handler Handler
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// Register adds a tool. Duplicate names and post-Freeze registration are
// programming errors.
func (r *Registry) Register(spec Spec, handler Handler) {
	if r.frozen {
		panic(fmt.Sprintf("tool %q registered after freeze", spec.Name))
	}
	if spec.Name == "" || handler == nil {
		panic("tool registration requires a name and a handler")
	}
	if _, ok := r.tools[spec.Name]; ok {
		panic(fmt.Sprintf("tool %q registered twice", spec.Name))
	}
	r.tools[spec.Name] = entry{spec: spec, handler: handler}
}

// Freeze closes the registry. Called once, before serving.
func (r *Registry) Freeze() { r.frozen = true }

// Specs returns all registered tool specs, sorted by name.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.tools))
	for _, e := range r.tools {
		specs = append(specs, e.spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Dispatch validates the request and invokes the handler. A panicking
// handler is converted into an error-status result; a single misbehaving
// handler must never take the server down.
func (r *Registry) Dispatch(ctx context.Context, req Request) (Result, error) {
	e, ok := r.tools[req.Tool]
	if !ok {
		return Result{}, core.NewError(core.ErrCodeToolUnknown, "unknown tool: %s", req.Tool)
	}
	args, err := e.spec.Validate(req.Arguments)
	if err != nil {
		return Result{}, err
	}
	return safeCall(ctx, e.handler, args), nil
}

func safeCall(ctx context.Context, h Handler, args Args) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Errorf("handler panicked: %v", rec)
		}
	}()
	return h(ctx, args)
}
