package fieldmap

import (
	"context"
	"log/slog"
	"time"
)

// Middleware decorates a Tool. Registry.Use applies middlewares to every registered tool.
type Middleware func(Tool) Tool

// Use installs middlewares on all current and future tools, replacing any previous chain.
// The first middleware is the outermost. Tools are rewrapped from their registered form,
// so calling Use twice never double-wraps.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, t := range r.rawTools {
		r.tools[name] = r.wrap(t)
	}
}

// ToolBase forwards Tool and ToolMetadata to Next. Middlewares, including ones in other
// packages, embed it and override Execute.
type ToolBase struct{ Next Tool }

func (b *ToolBase) Name() string               { return b.Next.Name() }
func (b *ToolBase) Description() string        { return b.Next.Description() }
func (b *ToolBase) Parameters() map[string]any { return b.Next.Parameters() }

func (b *ToolBase) Execute(ctx context.Context, args []byte) ([]byte, error) {
	return b.Next.Execute(ctx, args)
}

func (b *ToolBase) metadata() (ToolMetadata, bool) {
	meta, ok := b.Next.(ToolMetadata)
	return meta, ok
}

func (b *ToolBase) Timeout() time.Duration {
	if meta, ok := b.metadata(); ok {
		return meta.Timeout()
	}
	return 0
}

func (b *ToolBase) Tags() []string {
	if meta, ok := b.metadata(); ok {
		return meta.Tags()
	}
	return nil
}

func (b *ToolBase) Version() string {
	if meta, ok := b.metadata(); ok {
		return meta.Version()
	}
	return ""
}

func (b *ToolBase) IsDangerous() bool {
	if meta, ok := b.metadata(); ok {
		return meta.IsDangerous()
	}
	return false
}

// WithLogging logs each execution: "tool start", then "tool end" or "tool error" with the
// duration. Client errors are logged at Warn, all other errors at Error.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggingTool{ToolBase: ToolBase{Next: next}, logger: logger}
	}
}

type loggingTool struct {
	ToolBase
	logger *slog.Logger
}

func (m *loggingTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	name := m.Next.Name()
	m.logger.InfoContext(ctx, "tool start", "tool", name, "args_bytes", len(args))
	start := time.Now()
	out, err := m.Next.Execute(ctx, args)
	elapsed := time.Since(start)
	if err == nil {
		m.logger.InfoContext(ctx, "tool end", "tool", name, "duration", elapsed, "bytes", len(out))
		return out, nil
	}
	level := slog.LevelError
	if IsClientError(err) {
		level = slog.LevelWarn
	}
	m.logger.Log(ctx, level, "tool error", "tool", name, "duration", elapsed, "error", err)
	return nil, err
}

// WithRecovery turns a panic inside the tool into a SystemError. The Registry already does
// this when WithRecoverPanics is on; the middleware covers tools called outside a Registry.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return &recoveryTool{ToolBase{Next: next}}
	}
}

type recoveryTool struct{ ToolBase }

func (r *recoveryTool) Execute(ctx context.Context, args []byte) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, &SystemError{Err: &panicError{p: p}}
		}
	}()
	return r.Next.Execute(ctx, args)
}

// WithTimeoutMiddleware bounds every execution by d; d <= 0 disables it. Inside a Registry the
// shorter of d and the registry deadline wins: d never extends the tool's own timeout or the
// registry default.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Tool) Tool {
		return &timeoutTool{ToolBase: ToolBase{Next: next}, timeout: d}
	}
}

type timeoutTool struct {
	ToolBase
	timeout time.Duration
}

// Timeout reports the shorter of d and the inner timeout. Zero leaves the registry default in force.
func (t *timeoutTool) Timeout() time.Duration {
	inner := t.ToolBase.Timeout()
	if t.timeout > 0 && inner > 0 {
		return min(t.timeout, inner)
	}
	return inner
}

func (t *timeoutTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.Next.Execute(ctx, args)
}

var (
	_ ToolMetadata = (*loggingTool)(nil)
	_ ToolMetadata = (*recoveryTool)(nil)
	_ ToolMetadata = (*timeoutTool)(nil)
)
