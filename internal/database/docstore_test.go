package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/database"
)

func openTestStore(t *testing.T) *database.Store {
	t.Helper()
	s, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newDoc(fields map[string]any) database.Doc {
	d := database.Doc{"_id": uuid.NewString()}
	for k, v := range fields {
		d[k] = v
	}
	return d
}

func TestInsertOneAndFindOne(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureCollection(ctx, "widgets"))

	doc := newDoc(map[string]any{"name": "sprocket", "qty": float64(3)})
	require.NoError(t, s.InsertOne(ctx, "widgets", doc))

	found, ok, err := s.FindOne(ctx, "widgets", database.Doc{"name": "sprocket"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc["_id"], found["_id"])
	assert.Equal(t, float64(3), found["qty"])
}

func TestInsertManyPartialFailure(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureCollection(ctx, "widgets"))

	dupID := uuid.NewString()
	docs := []database.Doc{
		{"_id": dupID, "name": "a"},
		{"_id": dupID, "name": "b"},
		{"name": "missing-id"},
		newDoc(map[string]any{"name": "c"}),
	}

	result, err := s.InsertMany(ctx, "widgets", docs)
	require.NoError(t, err)
	assert.Len(t, result.Inserted, 2)
	require.Len(t, result.Failures, 2)

	count, err := s.Count(ctx, "widgets", database.Doc{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFindManySortLimitSkip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureCollection(ctx, "widgets"))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertOne(ctx, "widgets", newDoc(map[string]any{"n": float64(i)})))
	}

	docs, err := s.FindMany(ctx, "widgets", database.Doc{}, database.FindOptions{
		Sort:  []database.SortSpec{{Field: "n", Desc: true}},
		Skip:  1,
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, float64(3), docs[0]["n"])
	assert.Equal(t, float64(2), docs[1]["n"])
}

func TestUpdateOneSet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureCollection(ctx, "widgets"))

	doc := newDoc(map[string]any{"name": "sprocket", "qty": float64(1)})
	require.NoError(t, s.InsertOne(ctx, "widgets", doc))

	matched, err := s.UpdateOne(ctx, "widgets", database.Doc{"name": "sprocket"}, database.Doc{
		"$set": database.Doc{"qty": float64(9)},
	})
	require.NoError(t, err)
	assert.True(t, matched)

	found, ok, err := s.FindOne(ctx, "widgets", database.Doc{"_id": doc["_id"]})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(9), found["qty"])
}

func TestDeleteMany(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureCollection(ctx, "widgets"))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertOne(ctx, "widgets", newDoc(map[string]any{"dead": true})))
	}
	require.NoError(t, s.InsertOne(ctx, "widgets", newDoc(map[string]any{"dead": false})))

	n, err := s.DeleteMany(ctx, "widgets", database.Doc{"dead": true})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := s.Count(ctx, "widgets", database.Doc{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFindManyOnMissingCollection(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.FindMany(ctx, "ghost", database.Doc{}, database.FindOptions{})
	require.Error(t, err)
	assert.True(t, database.IsCollectionNotFound(err))
}

func TestInsertOneDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureCollection(ctx, "widgets"))

	doc := newDoc(nil)
	require.NoError(t, s.InsertOne(ctx, "widgets", doc))
	err := s.InsertOne(ctx, "widgets", doc)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}
