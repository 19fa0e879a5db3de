package fieldmap

import (
	"context"
	"encoding/json"
)

// Identity of the transform tool as published for discovery.
const (
	TransformToolName    = "transform_data"
	TransformToolVersion = "1.0.0"

	transformToolDescription = "Transform a source record into a new record: every entry of field_mappings " +
		"(target field -> source field) produces one target field holding the source field's value, " +
		"or null when the source field does not exist. Source fields that are not mapped are dropped."
)

// TransformArgs is the invocation payload of the transform tool.
type TransformArgs struct {
	SourceData    *Record       `json:"source_data"`
	FieldMappings *FieldMapping `json:"field_mappings"`
}

// Validate reports a missing source_data or field_mappings as ErrInvalidInput.
func (a TransformArgs) Validate() error {
	switch {
	case a.SourceData == nil:
		return &ClientError{Reason: "source_data is required and must be an object", Err: ErrInvalidInput}
	case a.FieldMappings == nil:
		return &ClientError{Reason: "field_mappings is required and must be an object", Err: ErrInvalidInput}
	}
	return nil
}

// TransformOutput is the success payload of the transform tool.
type TransformOutput struct {
	Transformed bool    `json:"transformed"`
	Data        *Record `json:"data"`
}

// TransformSchema returns the declared input schema of the transform tool: both fields required,
// field_mappings values must be strings, nothing else allowed.
func TransformSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source_data": map[string]any{
				"type":        "object",
				"description": "Source record to transform",
			},
			"field_mappings": map[string]any{
				"type":                 "object",
				"description":          "Target field name -> source field name",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required":             []any{"source_data", "field_mappings"},
		"additionalProperties": false,
	}
}

// NewTransformTool returns the transform tool. Options are applied after the defaults
// (version TransformToolVersion, tags "data" and "mapping"), so callers may override them.
func NewTransformTool(opts ...ToolOption) (Tool, error) {
	all := append([]ToolOption{
		WithVersion(TransformToolVersion),
		WithTags("data", "mapping"),
	}, opts...)
	return NewDynamicTool(TransformToolName, transformToolDescription, TransformSchema(), executeTransform, all...)
}

// executeTransform decodes arguments in document order, so result fields follow field_mappings order.
func executeTransform(_ context.Context, argsJSON []byte) ([]byte, error) {
	var args TransformArgs
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return nil, wrapJSONParseError(err)
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}
	data, err := Transform(args.SourceData, args.FieldMappings)
	if err != nil {
		return nil, &ClientError{Reason: err.Error(), Err: err}
	}
	out, err := json.Marshal(TransformOutput{Transformed: true, Data: data})
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	return out, nil
}
