package testutil

import (
	"testing"
	"time"

	"github.com/skosovsky/fieldmap"
)

// NewTestRegistry registers tools in a Registry with a generous timeout, so slow CI
// machines do not turn into ErrTimeout, and with panic recovery on.
func NewTestRegistry(tools ...fieldmap.Tool) *fieldmap.Registry {
	reg := fieldmap.NewRegistry(
		fieldmap.WithDefaultTimeout(30*time.Second),
		fieldmap.WithRecoverPanics(true),
	)
	for _, t := range tools {
		reg.Register(t)
	}
	return reg
}

// NewTransformRegistry is NewTestRegistry with the transform tool registered ahead of extra.
func NewTransformRegistry(tb testing.TB, extra ...fieldmap.Tool) *fieldmap.Registry {
	tb.Helper()
	tool, err := fieldmap.NewTransformTool()
	if err != nil {
		tb.Fatalf("NewTransformTool: %v", err)
	}
	return NewTestRegistry(append([]fieldmap.Tool{tool}, extra...)...)
}
