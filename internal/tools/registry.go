package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/koopa0/parley/internal/log"
)

// ErrDuplicateTool indicates a tool name was registered twice.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Registry holds the immutable tool set. Register is called during process
// startup only; after that the registry is read-only and safe for
// concurrent Invoke and List calls without locking.
type Registry struct {
	tools   map[string]Tool
	names   []string
	timeout time.Duration
	logger  log.Logger
}

// NewRegistry creates an empty registry. timeout bounds each invocation;
// zero disables the bound.
func NewRegistry(timeout time.Duration, logger log.Logger) (*Registry, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Registry{
		tools:   make(map[string]Tool),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Register adds a tool. Not safe for concurrent use; call during startup
// wiring only.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.names = append(r.names, name)
	return nil
}

// List returns the specs of all registered tools, sorted by name.
func (r *Registry) List() []Spec {
	specs := make([]Spec, 0, len(r.tools))
	for _, name := range r.names {
		t := r.tools[name]
		specs = append(specs, Spec{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Lookup returns the registered tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Invoke runs the named tool against the payload and records the outcome.
// All failures, including handler panics and timeouts, are captured in the
// Invocation; Invoke never returns a Go error and never crashes a request.
func (r *Registry) Invoke(ctx context.Context, name string, payload json.RawMessage) Invocation {
	start := time.Now()

	t, ok := r.tools[name]
	if !ok {
		r.logger.Warn("unknown tool requested", "tool", name)
		return Invocation{
			Tool:     name,
			Input:    payload,
			Result:   Errorf(ErrCodeUnknownTool, fmt.Sprintf("no tool named %q is registered", name)),
			Duration: time.Since(start),
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result := r.call(ctx, t, payload)

	// A deadline hit inside the handler surfaces as a recoverable
	// execution error, same class as any collaborator failure.
	if result.Status != StatusError && ctx.Err() != nil {
		result = Errorf(ErrCodeExecution, fmt.Sprintf("tool %q timed out", name))
	}

	inv := Invocation{
		Tool:     name,
		Input:    payload,
		Result:   result,
		Duration: time.Since(start),
	}

	if result.Status == StatusError {
		r.logger.Warn("tool invocation failed",
			"tool", name,
			"code", result.Error.Code,
			"duration", inv.Duration,
		)
	} else {
		r.logger.Debug("tool invocation succeeded", "tool", name, "duration", inv.Duration)
	}

	return inv
}

// call runs the handler with panic recovery.
func (r *Registry) call(ctx context.Context, t Tool, payload json.RawMessage) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", "tool", t.Name(), "panic", rec)
			result = Errorf(ErrCodeExecution, fmt.Sprintf("tool %q panicked: %v", t.Name(), rec))
		}
	}()
	return t.Call(ctx, payload)
}
