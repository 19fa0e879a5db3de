package fieldmap

import (
	"context"
	"time"
)

type toolOptions struct {
	timeout   time.Duration
	tags      []string
	version   string
	dangerous bool
}

// ToolOption sets metadata on a tool built by NewTool, NewDynamicTool or NewTransformTool.
type ToolOption func(*toolOptions)

// WithTimeout gives the tool its own execution deadline, replacing the registry default.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) { o.timeout = d }
}

// WithTags replaces the tool's discovery tags.
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) { o.tags = tags }
}

// WithVersion sets the semantic version published for discovery.
func WithVersion(version string) ToolOption {
	return func(o *toolOptions) { o.version = version }
}

// WithDangerous flags a tool whose calls a caller should confirm before running.
func WithDangerous() ToolOption {
	return func(o *toolOptions) { o.dangerous = true }
}

// Authenticator admits or rejects a call before it runs. Errors that do not already wrap
// ErrUnauthorized are wrapped with it. The returned context, when non-nil, is used for the
// execution, which lets an authenticator attach a session.
type Authenticator func(ctx context.Context, call ToolCall) (context.Context, error)

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	authenticate   Authenticator
	onBefore       func(context.Context, ToolCall)
	onAfter        func(context.Context, ToolCall, ToolResult, time.Duration)
}

// WithDefaultTimeout sets the deadline for tools without their own; 0 disables it.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) { o.timeout = d }
}

// WithMaxConcurrency caps simultaneous executions; 0 or less means no cap.
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) { o.maxConcurrency = n }
}

// WithRecoverPanics turns tool panics into SystemError results instead of crashing the caller.
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) { o.recoverPanics = enable }
}

// WithAuthenticator installs the per-call admission check.
func WithAuthenticator(fn Authenticator) RegistryOption {
	return func(o *registryOptions) { o.authenticate = fn }
}

// WithOnBeforeExecute registers a hook run just before a tool executes.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) { o.onBefore = fn }
}

// WithOnAfterExecute registers a hook run with the final result of every call that reached a tool.
func WithOnAfterExecute(fn func(context.Context, ToolCall, ToolResult, time.Duration)) RegistryOption {
	return func(o *registryOptions) { o.onAfter = fn }
}
