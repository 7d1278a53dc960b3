package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/database"
)

func TestCreateIndexUnique(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureCollection(ctx, "widgets"))

	err := s.CreateIndex(ctx, "widgets", []string{"sku"}, database.IndexOptions{Unique: true})
	require.NoError(t, err)

	doc := newDoc(map[string]any{"sku": "abc"})
	require.NoError(t, s.InsertOne(ctx, "widgets", doc))

	dup := newDoc(map[string]any{"sku": "abc"})
	err = s.InsertOne(ctx, "widgets", dup)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestCreateIndexRejectsBadFieldName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.EnsureCollection(ctx, "widgets"))

	err := s.CreateIndex(ctx, "widgets", []string{"bad; drop table widgets --"}, database.IndexOptions{})
	require.Error(t, err)
}

func TestCreateIndexRejectsBadTableName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.CreateIndex(ctx, "widgets; drop", []string{"sku"}, database.IndexOptions{})
	require.Error(t, err)
}
