package queryengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardEngineAllowsTrueExpression(t *testing.T) {
	g, err := NewGuardEngine()
	require.NoError(t, err)

	err = g.Evaluate([]string{`vars["role"] == "admin"`}, map[string]any{"role": "admin"})
	assert.NoError(t, err)
}

func TestGuardEngineDeniesFalseExpression(t *testing.T) {
	g, err := NewGuardEngine()
	require.NoError(t, err)

	err = g.Evaluate([]string{`vars["role"] == "admin"`}, map[string]any{"role": "guest"})
	require.Error(t, err)
}

func TestGuardEngineRejectsNonBooleanResult(t *testing.T) {
	g, err := NewGuardEngine()
	require.NoError(t, err)

	err = g.Evaluate([]string{`vars["role"]`}, map[string]any{"role": "admin"})
	require.Error(t, err)
}

func TestGuardEngineCompilesOnce(t *testing.T) {
	g, err := NewGuardEngine()
	require.NoError(t, err)

	expr := `vars["n"] > 0.0`
	require.NoError(t, g.Evaluate([]string{expr}, map[string]any{"n": float64(1)}))
	require.NoError(t, g.Evaluate([]string{expr}, map[string]any{"n": float64(2)}))
	assert.Len(t, g.programs, 1)
}

func TestSplitExprStages(t *testing.T) {
	pipeline := []map[string]any{
		{"$expr": `vars["ok"] == true`},
		{"$match": map[string]any{"a": 1}},
	}
	guards, rest := splitExprStages(pipeline)
	require.Len(t, guards, 1)
	require.Len(t, rest, 1)
}
