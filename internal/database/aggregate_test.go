package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/database"
)

func seedOrders(t *testing.T, s *database.Store, ctx context.Context) {
	t.Helper()
	require.NoError(t, s.EnsureCollection(ctx, "orders"))
	orders := []database.Doc{
		newDoc(map[string]any{"region": "east", "total": float64(10)}),
		newDoc(map[string]any{"region": "east", "total": float64(20)}),
		newDoc(map[string]any{"region": "west", "total": float64(5)}),
	}
	for _, o := range orders {
		require.NoError(t, s.InsertOne(ctx, "orders", o))
	}
}

func TestAggregateMatchSort(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedOrders(t, s, ctx)

	out, err := s.Aggregate(ctx, "orders", []database.Doc{
		{"$match": database.Doc{"region": "east"}},
		{"$sort": database.Doc{"total": float64(-1)}},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, float64(20), out[0]["total"])
}

func TestAggregateGroupSum(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedOrders(t, s, ctx)

	out, err := s.Aggregate(ctx, "orders", []database.Doc{
		{"$group": database.Doc{
			"_id":   "$region",
			"total": database.Doc{"$sum": "$total"},
		}},
		{"$sort": database.Doc{"_id": float64(1)}},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "east", out[0]["_id"])
	assert.Equal(t, float64(30), out[0]["total"])
	assert.Equal(t, "west", out[1]["_id"])
	assert.Equal(t, float64(5), out[1]["total"])
}

func TestAggregateCount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedOrders(t, s, ctx)

	out, err := s.Aggregate(ctx, "orders", []database.Doc{
		{"$match": database.Doc{"region": "east"}},
		{"$count": "matched"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, float64(2), out[0]["matched"])
}

func TestAggregateLimitSkip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedOrders(t, s, ctx)

	out, err := s.Aggregate(ctx, "orders", []database.Doc{
		{"$sort": database.Doc{"total": float64(1)}},
		{"$skip": float64(1)},
		{"$limit": float64(1)},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, float64(10), out[0]["total"])
}

func TestAggregateProjectInclusion(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedOrders(t, s, ctx)

	out, err := s.Aggregate(ctx, "orders", []database.Doc{
		{"$match": database.Doc{"region": "west"}},
		{"$project": database.Doc{"total": float64(1)}},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	_, hasRegion := out[0]["region"]
	assert.False(t, hasRegion)
	assert.Equal(t, float64(5), out[0]["total"])
}

func TestAggregateUnsupportedOperator(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedOrders(t, s, ctx)

	_, err := s.Aggregate(ctx, "orders", []database.Doc{
		{"$bogus": database.Doc{}},
	})
	require.Error(t, err)
}
