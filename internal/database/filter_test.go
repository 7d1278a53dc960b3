package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/database"
)

func TestMatchFilterEquality(t *testing.T) {
	doc := database.Doc{"name": "alice", "age": float64(30)}
	assert.True(t, database.MatchFilter(doc, database.Doc{"name": "alice"}))
	assert.False(t, database.MatchFilter(doc, database.Doc{"name": "bob"}))
}

func TestMatchFilterOperators(t *testing.T) {
	doc := database.Doc{"age": float64(30)}
	assert.True(t, database.MatchFilter(doc, database.Doc{"age": database.Doc{"$gte": float64(30)}}))
	assert.False(t, database.MatchFilter(doc, database.Doc{"age": database.Doc{"$gt": float64(30)}}))
	assert.True(t, database.MatchFilter(doc, database.Doc{"age": database.Doc{"$in": []any{float64(29), float64(30)}}}))
	assert.False(t, database.MatchFilter(doc, database.Doc{"age": database.Doc{"$nin": []any{float64(30)}}}))
}

func TestMatchFilterAndOr(t *testing.T) {
	doc := database.Doc{"name": "alice", "age": float64(30)}

	and := database.Doc{"$and": []any{
		database.Doc{"name": "alice"},
		database.Doc{"age": database.Doc{"$gt": float64(20)}},
	}}
	assert.True(t, database.MatchFilter(doc, and))

	or := database.Doc{"$or": []any{
		database.Doc{"name": "bob"},
		database.Doc{"age": database.Doc{"$gt": float64(20)}},
	}}
	assert.True(t, database.MatchFilter(doc, or))

	orFail := database.Doc{"$or": []any{
		database.Doc{"name": "bob"},
		database.Doc{"age": database.Doc{"$lt": float64(20)}},
	}}
	assert.False(t, database.MatchFilter(doc, orFail))
}

func TestMatchFilterExists(t *testing.T) {
	doc := database.Doc{"name": "alice"}
	assert.True(t, database.MatchFilter(doc, database.Doc{"name": database.Doc{"$exists": true}}))
	assert.True(t, database.MatchFilter(doc, database.Doc{"missing": database.Doc{"$exists": false}}))
	assert.False(t, database.MatchFilter(doc, database.Doc{"missing": database.Doc{"$exists": true}}))
}

func TestMatchFilterUnknownOperatorFailsClosed(t *testing.T) {
	doc := database.Doc{"age": float64(30)}
	assert.False(t, database.MatchFilter(doc, database.Doc{"age": database.Doc{"$bogus": float64(1)}}))
}

func TestMatchFilterNestedPath(t *testing.T) {
	doc := database.Doc{"profile": map[string]any{"city": "nyc"}}
	assert.True(t, database.MatchFilter(doc, database.Doc{"profile.city": "nyc"}))
}

func TestApplyUpdateSetUnset(t *testing.T) {
	doc := database.Doc{"name": "alice", "age": float64(30)}
	database.ApplyUpdate(doc, database.Doc{
		"$set":   database.Doc{"age": float64(31)},
		"$unset": database.Doc{"name": ""},
	})
	assert.Equal(t, float64(31), doc["age"])
	_, exists := doc["name"]
	assert.False(t, exists)
}

func TestApplyUpdateImplicitSet(t *testing.T) {
	doc := database.Doc{"name": "alice"}
	database.ApplyUpdate(doc, database.Doc{"name": "bob", "age": float64(5)})
	assert.Equal(t, "bob", doc["name"])
	assert.Equal(t, float64(5), doc["age"])
}

func TestCoerceFilter(t *testing.T) {
	filter := database.Doc{
		"age":      "30",
		"$coerce":  database.Doc{"age": "number"},
	}
	coerced, err := database.CoerceFilter(filter)
	require.NoError(t, err)
	assert.Equal(t, float64(30), coerced["age"])
	_, hasCoerce := coerced["$coerce"]
	assert.False(t, hasCoerce)
}

func TestCoerceValueUUID(t *testing.T) {
	v, err := database.CoerceValue("b6b6a6f2-3e1a-4e8b-9a3a-5e4d8d0f1a2b", database.CoerceUUID)
	require.NoError(t, err)
	assert.Equal(t, "b6b6a6f2-3e1a-4e8b-9a3a-5e4d8d0f1a2b", v)
}

func TestCoerceValueInvalidBoolean(t *testing.T) {
	_, err := database.CoerceValue("not-a-bool", database.CoerceBoolean)
	require.Error(t, err)
}
