// Package testutil holds helpers for testing code built on fieldmap: a scriptable tool
// and ready-made registries.
package testutil

import (
	"context"
	"sync"

	"github.com/skosovsky/fieldmap"
)

// MockTool is a scriptable Tool that records the arguments of every call.
// The zero value is usable: it is named "mock" and answers {}.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	ExecuteFn func(ctx context.Context, args []byte) ([]byte, error)

	mu    sync.Mutex
	calls [][]byte
}

// FailingTool returns a MockTool named name whose every call fails with err.
func FailingTool(name string, err error) *MockTool {
	return &MockTool{NameVal: name, ExecuteFn: func(context.Context, []byte) ([]byte, error) {
		return nil, err
	}}
}

func (m *MockTool) Name() string {
	if m.NameVal == "" {
		return "mock"
	}
	return m.NameVal
}

func (m *MockTool) Description() string { return m.DescVal }

func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal == nil {
		return map[string]any{}
	}
	return m.ParamsVal
}

func (m *MockTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]byte(nil), args...))
	m.mu.Unlock()
	if m.ExecuteFn == nil {
		return []byte(`{}`), nil
	}
	return m.ExecuteFn(ctx, args)
}

// Calls returns the arguments received so far, oldest first.
func (m *MockTool) Calls() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.calls...)
}

var _ fieldmap.Tool = (*MockTool)(nil)
