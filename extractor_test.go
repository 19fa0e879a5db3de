package fieldmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renameArgs struct {
	From string `json:"from" description:"Current field name"`
	To   string `json:"to"   description:"New field name"`
}

func (a renameArgs) Validate() error {
	if a.From == a.To {
		return errors.New("from and to must differ")
	}
	return nil
}

type pointerValidated struct {
	Name string `json:"name"`
}

func (p *pointerValidated) Validate() error {
	if p.Name == "reserved" {
		return &ClientError{Reason: "name is reserved", Err: ErrValidation}
	}
	return nil
}

func TestExtractor_Schema(t *testing.T) {
	ext, err := NewExtractor[renameArgs]()
	require.NoError(t, err)
	schema := ext.Schema()
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	from, ok := props["from"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Current field name", from["description"])

	schema["mutated"] = true
	_, ok = ext.Schema()["mutated"]
	assert.False(t, ok, "Schema returns a copy")
}

func TestExtractor_ParseAndValidate(t *testing.T) {
	ext, err := NewExtractor[renameArgs]()
	require.NoError(t, err)

	args, err := ext.ParseAndValidate([]byte(`{"from":"a","to":"b"}`))
	require.NoError(t, err)
	assert.Equal(t, renameArgs{From: "a", To: "b"}, args)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "malformed JSON", input: `{"from":`, wantErr: ErrInvalidInput},
		{name: "wrong type", input: `{"from":1,"to":"b"}`, wantErr: ErrValidation},
		{name: "missing required", input: `{"from":"a"}`, wantErr: ErrValidation},
		{name: "unknown property", input: `{"from":"a","to":"b","extra":1}`, wantErr: ErrValidation},
		{name: "custom validation", input: `{"from":"a","to":"a"}`, wantErr: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ext.ParseAndValidate([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, IsClientError(err))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractor_PointerReceiverValidation(t *testing.T) {
	ext, err := NewExtractor[pointerValidated]()
	require.NoError(t, err)

	_, err = ext.ParseAndValidate([]byte(`{"name":"ok"}`))
	require.NoError(t, err)

	_, err = ext.ParseAndValidate([]byte(`{"name":"reserved"}`))
	require.Error(t, err)
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "name is reserved", ce.Reason)
}

func TestExtractor_PointerType(t *testing.T) {
	ext, err := NewExtractor[*pointerValidated]()
	require.NoError(t, err)
	got, err := ext.ParseAndValidate([]byte(`{"name":"ok"}`))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ok", got.Name)

	_, err = ext.ParseAndValidate([]byte(`{"name":"reserved"}`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}
