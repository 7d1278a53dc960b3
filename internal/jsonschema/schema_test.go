package jsonschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/jsonschema"
)

func compile(t *testing.T, raw map[string]any) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.Compile(raw)
	require.NoError(t, err)
	return s
}

func TestValidateRequiredProperties(t *testing.T) {
	s := compile(t, map[string]any{
		"type":     "object",
		"required": []any{"name"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
	})

	assert.Empty(t, s.Validate(map[string]any{"name": "alice"}))
	assert.NotEmpty(t, s.Validate(map[string]any{}))
}

func TestValidateTypeMismatch(t *testing.T) {
	s := compile(t, map[string]any{"type": "string"})
	assert.NotEmpty(t, s.Validate(float64(3)))
	assert.Empty(t, s.Validate("ok"))
}

func TestValidateAdditionalPropertiesFalse(t *testing.T) {
	s := compile(t, map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
	})

	assert.Empty(t, s.Validate(map[string]any{"name": "x"}))
	assert.NotEmpty(t, s.Validate(map[string]any{"name": "x", "extra": 1}))
}

func TestValidateArrayItems(t *testing.T) {
	s := compile(t, map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "integer"},
	})

	assert.Empty(t, s.Validate([]any{float64(1), float64(2)}))
	assert.NotEmpty(t, s.Validate([]any{float64(1), "oops"}))
}

func TestValidateStringFormatDateTime(t *testing.T) {
	s := compile(t, map[string]any{"type": "string", "format": "date-time"})
	assert.Empty(t, s.Validate("2024-01-02T03:04:05Z"))
	assert.NotEmpty(t, s.Validate("not-a-date"))
}

func TestValidateStringFormatUUID(t *testing.T) {
	s := compile(t, map[string]any{"type": "string", "format": "uuid"})
	assert.Empty(t, s.Validate("550e8400-e29b-41d4-a716-446655440000"))
	assert.NotEmpty(t, s.Validate("not-a-uuid"))
}

func TestValidateNumericBounds(t *testing.T) {
	min := float64(1)
	max := float64(10)
	s := compile(t, map[string]any{"type": "number", "minimum": min, "maximum": max})
	assert.Empty(t, s.Validate(float64(5)))
	assert.NotEmpty(t, s.Validate(float64(0)))
	assert.NotEmpty(t, s.Validate(float64(11)))
}

func TestValidateEnum(t *testing.T) {
	s := compile(t, map[string]any{"enum": []any{"a", "b"}})
	assert.Empty(t, s.Validate("a"))
	assert.NotEmpty(t, s.Validate("c"))
}

func TestValidateNestedObject(t *testing.T) {
	s := compile(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"address": map[string]any{
				"type":     "object",
				"required": []any{"city"},
				"properties": map[string]any{
					"city": map[string]any{"type": "string"},
				},
			},
		},
	})

	assert.Empty(t, s.Validate(map[string]any{"address": map[string]any{"city": "NYC"}}))
	assert.NotEmpty(t, s.Validate(map[string]any{"address": map[string]any{}}))
}
