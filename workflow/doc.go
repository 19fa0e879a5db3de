// Package workflow models the linear workflow template that ships alongside the transform tool:
// an ordered list of stages (start, activities, end) plus named placeholder variables.
//
// Placeholders use the {{NAME|default}} syntax and are substituted textually by an external
// renderer before the template is parsed. This package only discovers them (ScanPlaceholders)
// and validates the rendered document (Parse, Template.Validate).
package workflow
