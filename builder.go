package fieldmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// handlerFunc is the validated execution step shared by every tool built here.
type handlerFunc func(ctx context.Context, argsJSON []byte) ([]byte, error)

// tool is the Tool built by NewTool and NewDynamicTool.
type tool struct {
	name        string
	description string
	schema      map[string]any
	run         handlerFunc
	opts        toolOptions
}

func newTool(name, description string, schema map[string]any, run handlerFunc, opts []ToolOption) *tool {
	t := &tool{name: name, description: description, schema: schema, run: run}
	for _, opt := range opts {
		opt(&t.opts)
	}
	return t
}

// NewTool builds a Tool from a typed handler. The argument schema is reflected from T, and
// arguments pass schema validation and T's Validate (if any) before fn sees them. The value
// fn returns is encoded as the JSON payload.
func NewTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	ext, err := NewExtractor[T]()
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}
	run := func(ctx context.Context, argsJSON []byte) ([]byte, error) {
		args, err := ext.ParseAndValidate(argsJSON)
		if err != nil {
			return nil, err
		}
		out, err := fn(ctx, args)
		if err != nil {
			return nil, wrapHandlerError(err)
		}
		payload, err := json.Marshal(out)
		if err != nil {
			return nil, &SystemError{Err: err}
		}
		return payload, nil
	}
	return newTool(name, description, ext.Schema(), run, opts), nil
}

// NewDynamicTool builds a Tool from a hand-written JSON Schema. Arguments are checked against
// schemaMap and then handed to fn as raw JSON, so fn decides how to decode them (the transform
// tool relies on this to keep object key order). schemaMap is copied, never mutated.
func NewDynamicTool(
	name, description string,
	schemaMap map[string]any,
	fn func(ctx context.Context, argsJSON []byte) ([]byte, error),
	opts ...ToolOption,
) (Tool, error) {
	if schemaMap == nil {
		return nil, errors.New("dynamic schema map must not be nil")
	}
	if fn == nil {
		return nil, errors.New("dynamic tool handler must not be nil")
	}
	schema, err := cloneSchema(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("failed to copy dynamic schema: %w", err)
	}
	stripSchemaIDs(schema)
	compiled, err := compileRawSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dynamic schema: %w", err)
	}
	run := func(ctx context.Context, argsJSON []byte) ([]byte, error) {
		instance, err := decodeInstance(argsJSON)
		if err != nil {
			return nil, wrapJSONParseError(err)
		}
		if err := validateAgainstSchema(compiled, instance); err != nil {
			return nil, err
		}
		payload, err := fn(ctx, argsJSON)
		if err != nil {
			return nil, wrapHandlerError(err)
		}
		return payload, nil
	}
	return newTool(name, description, schema, run, opts), nil
}

// cloneSchema deep-copies a schema through its JSON form.
func cloneSchema(schemaMap map[string]any) (map[string]any, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters copies the top level of the schema only; nested maps are shared and must not be mutated.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Execute(ctx context.Context, argsJSON []byte) ([]byte, error) {
	return t.run(ctx, argsJSON)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }
func (t *tool) Version() string        { return t.opts.version }
func (t *tool) IsDangerous() bool      { return t.opts.dangerous }

// wrapHandlerError keeps client errors visible and hides everything else behind SystemError.
func wrapHandlerError(err error) error {
	if err == nil || IsClientError(err) {
		return err
	}
	return &SystemError{Err: err}
}

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
