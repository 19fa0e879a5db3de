package fieldmap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "client", err: &ClientError{Reason: "field_mappings must be an object"}, want: "invalid tool input: field_mappings must be an object"},
		{name: "client without reason", err: &ClientError{}, want: "invalid tool input: "},
		{name: "system hides cause", err: &SystemError{Err: errors.New("encoder exploded")}, want: "internal system error during tool execution"},
		{name: "transform whole input", err: &TransformError{Reason: "source record must not be nil"}, want: "transform: source record must not be nil"},
		{name: "transform one field", err: &TransformError{Field: "y", Reason: "boom"}, want: `transform "y": boom`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorChains(t *testing.T) {
	missing := &TransformError{Field: "zip", Reason: "not found", Err: ErrMissingField}
	asClient := &ClientError{Reason: missing.Error(), Err: missing}
	wrapped := fmt.Errorf("call 7: %w", asClient)

	assert.ErrorIs(t, wrapped, ErrMissingField)
	var te *TransformError
	require.ErrorAs(t, wrapped, &te)
	assert.Equal(t, "zip", te.Field)
	assert.True(t, IsClientError(wrapped))
	assert.False(t, IsSystemError(wrapped))

	sys := fmt.Errorf("batch: %w", &SystemError{Err: ErrTimeout})
	assert.ErrorIs(t, sys, ErrTimeout)
	assert.True(t, IsSystemError(sys))
	assert.False(t, IsClientError(sys))

	assert.False(t, IsClientError(ErrToolNotFound))
	assert.False(t, IsSystemError(ErrToolNotFound))
	assert.False(t, IsClientError(nil))
}

func TestWrapJSONParseError(t *testing.T) {
	err := wrapJSONParseError(errors.New("unexpected EOF"))
	require.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid tool input: json parse error: unexpected EOF", err.Error())
}
