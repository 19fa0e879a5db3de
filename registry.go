package fieldmap

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Registry owns a set of tools and runs calls against them. Each call is authenticated,
// bounded by a deadline and a concurrency limit, and always ends in a ToolResult.
type Registry struct {
	mu          sync.Mutex
	tools       map[string]Tool // as executed, middlewares applied
	rawTools    map[string]Tool // as registered, so Use can rewrap from scratch
	middlewares []Middleware

	opts     registryOptions
	sem      chan struct{}
	closed   chan struct{}
	inFlight sync.WaitGroup
}

// NewRegistry returns a Registry with a 5s default timeout, at most 10 concurrent
// executions and panic recovery on, adjusted by opts.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:        5 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Registry{
		tools:    make(map[string]Tool),
		rawTools: make(map[string]Tool),
		opts:     o,
		closed:   make(chan struct{}),
	}
	if o.maxConcurrency > 0 {
		r.sem = make(chan struct{}, o.maxConcurrency)
	}
	return r
}

// Register adds t, replacing any tool with the same name, and wraps it with the
// middlewares installed by Use.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rawTools[t.Name()] = t
	r.tools[t.Name()] = r.wrap(t)
}

// wrap applies the middleware chain; the first middleware ends up outermost. Callers hold mu.
func (r *Registry) wrap(t Tool) Tool {
	for _, mw := range slices.Backward(r.middlewares) {
		t = mw(t)
	}
	return t
}

// GetAllTools returns the registered tools sorted by name.
func (r *Registry) GetAllTools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := slices.Sorted(maps.Keys(r.tools))
	out := make([]Tool, len(names))
	for i, name := range names {
		out[i] = r.tools[name]
	}
	return out
}

// GetTool looks up a tool by name, middlewares applied.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs one call. Failures are reported in the result, never returned or panicked:
// ErrShutdown after Shutdown, ErrToolNotFound for an unknown name, ErrUnauthorized when the
// Authenticator refuses, ErrTimeout when the deadline passes, and whatever the tool returned.
func (r *Registry) Execute(ctx context.Context, call ToolCall) ToolResult {
	res := ToolResult{CallID: call.ID, ToolName: call.ToolName}
	t, err := r.begin(call.ToolName)
	if err != nil {
		res.Error = err
		return res
	}
	defer r.inFlight.Done()

	ctx, err = r.authenticate(ctx, call)
	if err != nil {
		res.Error = err
		return res
	}
	if d := r.timeoutFor(t); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	if err := r.acquire(ctx); err != nil {
		res.Error = timeoutError(err)
		return res
	}
	defer r.release()

	res.Result, res.Error = r.invoke(ctx, t, call)
	return res
}

// begin resolves the tool and counts the call as in flight, unless the registry is closed.
func (r *Registry) begin(name string) (Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.closed:
		return nil, ErrShutdown
	default:
	}
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	r.inFlight.Add(1)
	return t, nil
}

func (r *Registry) timeoutFor(t Tool) time.Duration {
	if meta, ok := t.(ToolMetadata); ok && meta.Timeout() > 0 {
		return meta.Timeout()
	}
	return r.opts.timeout
}

// invoke runs the hooks around the tool. Panic recovery is deferred after the after-hook,
// so the hook sees the recovered SystemError.
func (r *Registry) invoke(ctx context.Context, t Tool, call ToolCall) (out []byte, err error) {
	start := time.Now()
	if r.opts.onAfter != nil {
		defer func() {
			r.opts.onAfter(ctx, call, ToolResult{CallID: call.ID, ToolName: call.ToolName, Result: out, Error: err}, time.Since(start))
		}()
	}
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				out, err = nil, &SystemError{Err: &panicError{p: p}}
			}
		}()
	}
	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}
	out, err = t.Execute(ctx, call.Args)
	if err != nil {
		return nil, timeoutError(err)
	}
	return out, nil
}

// timeoutError marks deadline failures with ErrTimeout while keeping the original cause.
func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func (r *Registry) acquire(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) release() {
	if r.sem != nil {
		<-r.sem
	}
}

// ExecuteBatch runs calls concurrently and returns their results in call order.
// A failing call does not affect the others.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Go(func() { results[i] = r.Execute(ctx, call) })
	}
	wg.Wait()
	return results
}

// Shutdown refuses new calls and waits until in-flight ones finish or ctx ends.
// Calling it again is a no-op.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.closed:
		r.mu.Unlock()
		return nil
	default:
		close(r.closed)
	}
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.inFlight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// panicError carries a recovered panic value inside SystemError.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
