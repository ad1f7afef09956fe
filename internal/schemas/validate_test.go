package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id": {"type": "string"},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`

func TestValidateValue_Valid(t *testing.T) {
	err := ValidateValue(testSchema, map[string]any{"id": "abc", "tags": []any{"x"}})
	assert.NoError(t, err)
}

func TestValidateValue_MissingField(t *testing.T) {
	err := ValidateValue(testSchema, map[string]any{"tags": []any{}})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateValue_WrongType(t *testing.T) {
	err := ValidateValue(testSchema, map[string]any{"id": 7.0})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "id", validationErr.Errors[0].Field)
}

func TestValidateValue_MalformedSchema(t *testing.T) {
	err := ValidateValue(`{"type": `, map[string]any{})

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{name: "valid map", value: map[string]any{"id": "a"}},
		{name: "bad tag type", value: map[string]any{"id": "a", "tags": []any{1.0}}, wantErr: true},
		{name: "not an object", value: []any{"a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(testSchema, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
