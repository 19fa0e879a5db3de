package workflow

import (
	"context"

	"github.com/skosovsky/fieldmap"
)

// PlaceholdersToolName is the registered name of the placeholder discovery tool.
const PlaceholdersToolName = "workflow_placeholders"

// PlaceholdersArgs is the input of the placeholder discovery tool.
type PlaceholdersArgs struct {
	Template string `json:"template" description:"Raw, unrendered workflow template text"`
}

// Validate rejects an empty template.
func (a PlaceholdersArgs) Validate() error {
	if a.Template == "" {
		return &fieldmap.ClientError{Reason: "template must not be empty", Err: fieldmap.ErrInvalidInput}
	}
	return nil
}

// PlaceholdersResult lists the placeholders and the defaults a renderer would apply.
type PlaceholdersResult struct {
	Placeholders []Placeholder     `json:"placeholders"`
	Defaults     map[string]string `json:"defaults"`
}

// NewPlaceholdersTool returns a tool that reports the placeholders of a raw template.
func NewPlaceholdersTool(opts ...fieldmap.ToolOption) (fieldmap.Tool, error) {
	all := append([]fieldmap.ToolOption{
		fieldmap.WithVersion("1.0.0"),
		fieldmap.WithTags("workflow", "template"),
	}, opts...)
	return fieldmap.NewTool(PlaceholdersToolName,
		"List the {{NAME|default}} placeholders of a workflow template in order of first appearance",
		scanHandler, all...)
}

func scanHandler(_ context.Context, args PlaceholdersArgs) (PlaceholdersResult, error) {
	res, err := Inspect(args.Template)
	if err != nil {
		return PlaceholdersResult{}, &fieldmap.ClientError{Reason: err.Error(), Err: err}
	}
	return res, nil
}

// Inspect scans raw and pairs the placeholders with their defaults.
func Inspect(raw string) (PlaceholdersResult, error) {
	found, err := ScanPlaceholders(raw)
	if err != nil {
		return PlaceholdersResult{}, err
	}
	if found == nil {
		found = []Placeholder{}
	}
	return PlaceholdersResult{Placeholders: found, Defaults: Defaults(found)}, nil
}
