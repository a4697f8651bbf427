package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a single-purpose callable with a declared input contract.
// Implementations validate their own input and report all failures through
// the returned Result.
type Tool interface {
	// Name returns the unique wire name of the tool.
	Name() string

	// Description explains the tool's capability for discovery surfaces.
	Description() string

	// InputSchema returns the JSON schema of the input payload.
	InputSchema() *jsonschema.Schema

	// Call runs the tool against a raw JSON payload.
	Call(ctx context.Context, payload json.RawMessage) Result
}

// ExecutableTool adapts a typed handler to the Tool interface. Type safety
// is kept at compile time via the generic constructor; type erasure happens
// internally so the registry can store heterogeneous tools.
type ExecutableTool struct {
	name        string
	description string
	schema      *jsonschema.Schema
	handler     func(ctx context.Context, payload json.RawMessage) Result
}

// NewTool creates a tool from a typed handler. The input schema is inferred
// from In via jsonschema-go; a payload that does not unmarshal into In is
// rejected as invalid_input before the handler runs.
func NewTool[In any](name, description string, handler func(context.Context, In) Result) (*ExecutableTool, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("tool %q: handler is required", name)
	}

	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("tool %q: inferring input schema: %w", name, err)
	}

	erased := func(ctx context.Context, payload json.RawMessage) Result {
		var in In
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &in); err != nil {
				return Errorf(ErrCodeInvalidInput, fmt.Sprintf("invalid input payload: %v", err))
			}
		}
		return handler(ctx, in)
	}

	return &ExecutableTool{
		name:        name,
		description: description,
		schema:      schema,
		handler:     erased,
	}, nil
}

// MustTool is NewTool that panics on construction errors. Built-in tool
// constructors use it; schema inference over their fixed input types cannot
// fail at runtime.
func MustTool[In any](name, description string, handler func(context.Context, In) Result) *ExecutableTool {
	t, err := NewTool(name, description, handler)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the tool's wire name.
func (t *ExecutableTool) Name() string { return t.name }

// Description returns the tool's capability description.
func (t *ExecutableTool) Description() string { return t.description }

// InputSchema returns the inferred input schema.
func (t *ExecutableTool) InputSchema() *jsonschema.Schema { return t.schema }

// Call runs the handler against the raw payload.
func (t *ExecutableTool) Call(ctx context.Context, payload json.RawMessage) Result {
	return t.handler(ctx, payload)
}
