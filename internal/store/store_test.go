package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	primary, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = primary.Close() })

	data, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.Close() })

	s := store.New(primary, data)
	require.NoError(t, s.EnsurePrimaryTables(context.Background()))
	return s
}

func testDID(t *testing.T, tag string) identity.DID {
	t.Helper()
	did, err := identity.ParseDID("did:nil:" + tag)
	require.NoError(t, err)
	return did
}

func TestCreateAndGetBuilder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	did := testDID(t, "aa")

	b, err := s.CreateBuilder(ctx, did, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", b.Name)
	assert.Empty(t, b.Collections)

	loaded, err := s.GetBuilder(ctx, did)
	require.NoError(t, err)
	assert.Equal(t, "Acme", loaded.Name)
}

func TestCreateBuilderDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	did := testDID(t, "bb")

	_, err := s.CreateBuilder(ctx, did, "Acme")
	require.NoError(t, err)

	_, err = s.CreateBuilder(ctx, did, "Acme Again")
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.DuplicateEntry))
}

func TestBuilderCollectionSetBidirectional(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	did := testDID(t, "cc")

	_, err := s.CreateBuilder(ctx, did, "Acme")
	require.NoError(t, err)

	require.NoError(t, s.AddCollection(ctx, did, "col-1"))
	require.NoError(t, s.AddCollection(ctx, did, "col-1"))
	require.NoError(t, s.AddCollection(ctx, did, "col-2"))

	b, err := s.GetBuilder(ctx, did)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"col-1", "col-2"}, b.Collections)

	require.NoError(t, s.RemoveCollection(ctx, did, "col-1"))
	b, err = s.GetBuilder(ctx, did)
	require.NoError(t, err)
	assert.Equal(t, []string{"col-2"}, b.Collections)
}

func TestCreateCollectionProvisionsDataTable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	did := testDID(t, "dd")

	c, err := s.CreateCollection(ctx, &store.Collection{
		Owner: did,
		Type:  store.CollectionOwned,
		Name:  "widgets",
	})
	require.NoError(t, err)

	// The data-namespace table must already exist: no separate
	// EnsureCollection call should be required before writing to it.
	err = s.Data().InsertOne(ctx, c.ID, database.Doc{"_id": "doc-1"})
	require.NoError(t, err)

	doc, ok, err := s.Data().FindOne(ctx, c.ID, database.Doc{"_id": "doc-1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "doc-1", doc["_id"])
}

func TestUserLazyCreateAndDataRefLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	user := testDID(t, "dd")

	_, err := s.GetUser(ctx, user)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.DocumentNotFound))

	require.NoError(t, s.AddDataRef(ctx, user, store.DataRef{
		Builder:    testDID(t, "ab12"),
		Collection: "col-1",
		Document:   "doc-1",
	}))

	loaded, err := s.GetUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, loaded.Data, 1)
	require.Len(t, loaded.Logs, 1)
	assert.Equal(t, store.LogCreateData, loaded.Logs[0].Op)

	require.NoError(t, s.RemoveDataRef(ctx, user, "col-1", "doc-1"))

	_, err = s.GetUser(ctx, user)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.DocumentNotFound))
}

func TestQueryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	owner := testDID(t, "ee")

	q := &store.Query{
		Owner:      owner,
		Name:       "by-age",
		Collection: "col-1",
		Variables: map[string]store.Variable{
			"age": {Path: "$.pipeline.0.$match.age"},
		},
		Pipeline: []map[string]any{
			{"$match": map[string]any{"age": float64(0)}},
		},
	}
	created, err := s.CreateQuery(ctx, q)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	loaded, err := s.GetQuery(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "by-age", loaded.Name)

	list, err := s.ListQueriesByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteQuery(ctx, created.ID))
	_, err = s.GetQuery(ctx, created.ID)
	require.Error(t, err)
}

func TestQueryRunStateMachine(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.CreateQueryRun(ctx, "query-1")
	require.NoError(t, err)
	assert.Equal(t, store.RunPending, run.Status)

	require.NoError(t, s.TransitionRunning(ctx, run.ID))
	loaded, err := s.GetQueryRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RunRunning, loaded.Status)
	require.NotNil(t, loaded.Started)

	require.NoError(t, s.TransitionComplete(ctx, run.ID, []map[string]any{{"age": float64(42)}}))
	loaded, err = s.GetQueryRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RunComplete, loaded.Status)

	// Terminal states are monotone: a later error transition is a no-op.
	require.NoError(t, s.TransitionError(ctx, run.ID, []string{"late failure"}))
	loaded, err = s.GetQueryRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RunComplete, loaded.Status)
}

func TestDeleteRunsOlderThan(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	old, err := s.CreateQueryRun(ctx, "query-1")
	require.NoError(t, err)
	recent, err := s.CreateQueryRun(ctx, "query-2")
	require.NoError(t, err)

	// Backdate old's _created directly; CreateQueryRun always stamps "now".
	backdated := database.Now().Add(-48 * time.Hour)
	_, err = s.Primary().UpdateOne(ctx, "query_runs", database.Doc{"_id": old.ID}, database.Doc{
		"$set": database.Doc{"_created": backdated},
	})
	require.NoError(t, err)

	n, err := s.DeleteRunsOlderThan(ctx, database.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetQueryRun(ctx, old.ID)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.DocumentNotFound))

	_, err = s.GetQueryRun(ctx, recent.ID)
	require.NoError(t, err)
}

func TestMaintenanceSingleton(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	cfg, err := s.GetMaintenance(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Active)

	require.NoError(t, s.StartMaintenance(ctx))
	cfg, err = s.GetMaintenance(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.Active)
	require.NotNil(t, cfg.StartedAt)

	require.NoError(t, s.StopMaintenance(ctx))
	cfg, err = s.GetMaintenance(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Active)
}
