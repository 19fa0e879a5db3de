package fieldmap

import (
	"context"
	"encoding/json"
	"time"
)

// Tool is the contract for an operation exposed to an orchestration layer.
// It is transport-agnostic: the same Tool is served over HTTP, the CLI, or called in-process.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a valid JSON Schema as map describing the invocation arguments.
	Parameters() map[string]any
	// Execute validates argsJSON, runs the tool, and returns the JSON-encoded payload.
	Execute(ctx context.Context, argsJSON []byte) ([]byte, error)
}

// ToolMetadata is implemented by tools created with NewTool and NewDynamicTool.
// Registry uses Timeout() to override the default execution timeout when set. Other methods
// expose tags, version, and the dangerous flag for discovery.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	Version() string
	IsDangerous() bool
}

// ToolCall is a single execution request.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage // JSON payload of arguments
}

// ToolResult is the outcome of one ToolCall: exactly one of Result and Error is set.
type ToolResult struct {
	CallID   string
	ToolName string
	Result   []byte // JSON payload on success
	Error    error
}

// OK reports whether the call succeeded.
func (r ToolResult) OK() bool { return r.Error == nil }
