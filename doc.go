// Package fieldmap renames and projects schema-less records, and exposes that transformation
// as a schema-described tool for an orchestration layer.
//
// # Overview
//
// The core is Transform: given a source Record and a FieldMapping (target field -> source
// field), it builds a new Record with one field per mapping entry, in mapping order. A mapped
// source field that does not exist yields the Absent marker instead of an error; unmapped
// source fields are dropped.
//
// Around it sits a small tool engine: callers send JSON, the engine validates it against the
// same JSON Schema it publishes for discovery, executes, and returns a ToolResult that
// NewEnvelope turns into a success or failure variant.
//
// Pipeline: Tool (NewTool / NewDynamicTool / NewTransformTool) → Registry → Execute
// (authenticate, timeout, validate, call, marshal) → ToolResult → Envelope.
//
// # Key concepts
//
//   - Single Source of Truth: the schema shown to the caller is the schema used for validation.
//   - Partial Success: ExecuteBatch collects all results; one failure does not cancel others.
//   - Client vs system errors: ClientError carries a message meant for the caller; SystemError hides internals.
//
// # Example
//
//	out, err := fieldmap.Transform(
//	    fieldmap.RecordOf("first_name", "Ana", "age", 30),
//	    fieldmap.MappingOf("name", "first_name", "years", "age"),
//	)
//	// out: {"name":"Ana","years":30}
//
//	tool, _ := fieldmap.NewTransformTool()
//	reg := fieldmap.NewRegistry()
//	reg.Register(tool)
//	res := reg.Execute(ctx, fieldmap.ToolCall{ID: "1", ToolName: fieldmap.TransformToolName,
//	    Args: []byte(`{"source_data":{"a":1},"field_mappings":{"x":"a"}}`)})
package fieldmap
