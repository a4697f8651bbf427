package tools

import (
	"encoding/json"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Status indicates whether a tool invocation succeeded.
type Status string

// Invocation statuses.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Error codes surfaced in Result.Error.Code.
const (
	// ErrCodeUnknownTool: the requested tool name is not registered.
	ErrCodeUnknownTool = "unknown_tool"

	// ErrCodeInvalidInput: the payload failed the tool's schema or
	// semantic validation (bad expression, traversal path, bad symbol).
	ErrCodeInvalidInput = "invalid_input"

	// ErrCodeExecution: a downstream failure while running the tool
	// (unreachable collaborator, timeout, I/O error).
	ErrCodeExecution = "execution_error"

	// ErrCodeUnavailable: the tool has no configured credentials or
	// backing service and reports itself unavailable rather than failing.
	ErrCodeUnavailable = "unavailable"

	// ErrCodeSecurity: the input was rejected by a security validator.
	ErrCodeSecurity = "security"
)

// Error is a structured tool error for model and caller consumption.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil tool error>"
	}
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// Result is the outcome of one tool invocation. Tool handlers return
// Result values for all outcomes; they never return Go errors.
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *Error         `json:"error,omitempty"`
}

// Errorf builds an error Result.
func Errorf(code, message string) Result {
	return Result{
		Status:  StatusError,
		Message: message,
		Error:   &Error{Code: code, Message: message},
	}
}

// Spec describes a registered tool: name, description, and the JSON schema
// of its input payload. Returned by Registry.List for discovery surfaces
// (HTTP, MCP, prompts).
type Spec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema,omitempty"`
}

// Invocation is the ephemeral record of one tool call. It is attached to
// response metadata and not persisted.
type Invocation struct {
	Tool     string          `json:"tool"`
	Input    json.RawMessage `json:"input,omitempty"`
	Result   Result          `json:"result"`
	Duration time.Duration   `json:"duration"`
}

// Text returns the human-readable summary of the invocation for splicing
// into prompts and persona step output.
func (inv Invocation) Text() string {
	if inv.Result.Message != "" {
		return inv.Result.Message
	}
	if inv.Result.Error != nil {
		return inv.Result.Error.Message
	}
	return string(inv.Result.Status)
}
