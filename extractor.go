package fieldmap

import (
	"encoding/json"
	"maps"
	"reflect"

	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

// Extractor publishes the JSON Schema of T and turns raw arguments into a validated T.
// NewTool is built on it; use it directly when a handler needs the same checks outside a Tool.
type Extractor[T any] struct {
	schemaMap map[string]any
	compiled  *validator.Schema
}

// NewExtractor reflects and compiles the schema of T.
func NewExtractor[T any]() (*Extractor[T], error) {
	schemaMap, compiled, err := generateSchema[T]()
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{schemaMap: schemaMap, compiled: compiled}, nil
}

// Schema returns the schema with its top level copied; nested maps are shared.
func (e *Extractor[T]) Schema() map[string]any {
	return maps.Clone(e.schemaMap)
}

// ParseAndValidate checks argsJSON against the schema, decodes it into T and runs
// T's Validate. Every failure is a ClientError: ErrInvalidInput for malformed JSON,
// ErrValidation otherwise.
func (e *Extractor[T]) ParseAndValidate(argsJSON []byte) (T, error) {
	var args T
	instance, err := decodeInstance(argsJSON)
	if err != nil {
		return args, wrapJSONParseError(err)
	}
	if err := validateAgainstSchema(e.compiled, instance); err != nil {
		return args, err
	}
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		var zero T
		return zero, wrapJSONParseError(err)
	}
	if err := runLayer2Validation(args); err != nil {
		var zero T
		if IsClientError(err) {
			return zero, err
		}
		return zero, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return args, nil
}

// runLayer2Validation calls Validate on args, or on &args when only the pointer type
// implements Validatable. Validate runs at most once.
func runLayer2Validation[T any](args T) error {
	if _, ok := any(args).(Validatable); ok {
		return validateCustom(args)
	}
	if typ := reflect.TypeOf(args); typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	return validateCustom(&args)
}
