package queryengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/store"
)

func TestValidateRegistrationRejectsBadPipelineShape(t *testing.T) {
	pipeline := []map[string]any{
		{"$match": map[string]any{}, "$sort": map[string]any{}},
	}
	err := ValidateRegistration(pipeline, nil)
	require.Error(t, err)
}

func TestValidateRegistrationRejectsUnpermittedOperator(t *testing.T) {
	pipeline := []map[string]any{
		{"$lookup": map[string]any{}},
	}
	err := ValidateRegistration(pipeline, nil)
	require.Error(t, err)
}

func TestValidateRegistrationAcceptsValidVariablePath(t *testing.T) {
	pipeline := []map[string]any{
		{"$match": map[string]any{"status": "placeholder"}},
	}
	vars := map[string]store.Variable{
		"status": {Path: "$.pipeline.0.$match.status"},
	}
	assert.NoError(t, ValidateRegistration(pipeline, vars))
}

func TestValidateProvidedRejectsMissingRequired(t *testing.T) {
	vars := map[string]store.Variable{"status": {Path: "$.pipeline.0.x"}}
	_, err := ValidateProvided(vars, map[string]any{})
	require.Error(t, err)
}

func TestValidateProvidedAllowsMissingOptional(t *testing.T) {
	vars := map[string]store.Variable{"status": {Path: "$.pipeline.0.x", Optional: true}}
	_, err := ValidateProvided(vars, map[string]any{})
	require.NoError(t, err)
}

func TestValidateProvidedRejectsUnknownKey(t *testing.T) {
	vars := map[string]store.Variable{"status": {Path: "$.pipeline.0.x"}}
	_, err := ValidateProvided(vars, map[string]any{"status": "ok", "extra": 1})
	require.Error(t, err)
}

func TestValidateProvidedRejectsMixedTypeArray(t *testing.T) {
	vars := map[string]store.Variable{"ids": {Path: "$.pipeline.0.x"}}
	_, err := ValidateProvided(vars, map[string]any{"ids": []any{"a", float64(1)}})
	require.Error(t, err)
}

func TestValidateProvidedAllowsHomogeneousArray(t *testing.T) {
	vars := map[string]store.Variable{"ids": {Path: "$.pipeline.0.x"}}
	out, err := ValidateProvided(vars, map[string]any{"ids": []any{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out["ids"])
}
