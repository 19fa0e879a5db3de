package workflow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/fieldmap"
	"github.com/skosovsky/fieldmap/testutil"
)

func TestPlaceholdersTool_Metadata(t *testing.T) {
	tool, err := NewPlaceholdersTool()
	require.NoError(t, err)
	assert.Equal(t, PlaceholdersToolName, tool.Name())
	meta, ok := tool.(fieldmap.ToolMetadata)
	require.True(t, ok)
	assert.Equal(t, "1.0.0", meta.Version())
	assert.Equal(t, []string{"workflow", "template"}, meta.Tags())

	props, ok := tool.Parameters()["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "template")
}

func TestPlaceholdersTool_Execute(t *testing.T) {
	tool, err := NewPlaceholdersTool()
	require.NoError(t, err)
	reg := testutil.NewTestRegistry(tool)

	args, err := json.Marshal(PlaceholdersArgs{Template: `{"a":"{{X|1}}","b":"{{Y}}"}`})
	require.NoError(t, err)
	res := reg.Execute(context.Background(), fieldmap.ToolCall{ID: "p1", ToolName: PlaceholdersToolName, Args: args})
	require.NoError(t, res.Error)

	var out PlaceholdersResult
	require.NoError(t, json.Unmarshal(res.Result, &out))
	assert.Equal(t, []Placeholder{
		{Name: "X", Default: "1", HasDefault: true},
		{Name: "Y"},
	}, out.Placeholders)
	assert.Equal(t, map[string]string{"X": "1"}, out.Defaults)
}

func TestPlaceholdersTool_NoPlaceholders(t *testing.T) {
	tool, err := NewPlaceholdersTool()
	require.NoError(t, err)
	out, err := tool.Execute(context.Background(), []byte(`{"template":"plain"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"placeholders":[],"defaults":{}}`, string(out))
}

func TestPlaceholdersTool_Errors(t *testing.T) {
	tool, err := NewPlaceholdersTool()
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    string
		wantErr error
	}{
		{name: "empty template", args: `{"template":""}`, wantErr: fieldmap.ErrInvalidInput},
		{name: "conflicting defaults", args: `{"template":"{{A|1}}{{A|2}}"}`, wantErr: ErrInvalidTemplate},
		{name: "missing field", args: `{}`, wantErr: fieldmap.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tool.Execute(context.Background(), []byte(tt.args))
			require.Error(t, err)
			assert.True(t, fieldmap.IsClientError(err))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
