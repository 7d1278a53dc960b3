package nuc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/nuc"
	"github.com/nilnode/nildb/internal/store"
)

type fakeRevocation struct{ revoked bool }

func (f fakeRevocation) AnyRevoked(ctx context.Context, hashes []string) (bool, error) {
	return f.revoked, nil
}

func newTestEngine(t *testing.T, anchor, node testKey, revoked bool) (*nuc.Engine, *store.Store) {
	t.Helper()
	primary, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = primary.Close() })
	data, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.Close() })

	s := store.New(primary, data)
	require.NoError(t, s.EnsurePrimaryTables(context.Background()))

	engine := nuc.NewEngine(node.did, anchor.did, fakeRevocation{revoked: revoked}, s, nil)
	return engine, s
}

func TestVerifyHappyPathBuilder(t *testing.T) {
	ctx := context.Background()
	anchor := newTestKey(t)
	node := newTestKey(t)
	builder := newTestKey(t)

	engine, s := newTestEngine(t, anchor, node, false)
	_, err := s.CreateBuilder(ctx, builder.did, "Acme")
	require.NoError(t, err)

	raw := signToken(t, anchor, builder, node, "nil.db.queries.read")
	req, err := engine.RequireBuilder(ctx, "bearer "+raw, "nil.db.queries", nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme", req.Builder.Name)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	ctx := context.Background()
	anchor := newTestKey(t)
	node := newTestKey(t)
	other := newTestKey(t)
	builder := newTestKey(t)

	engine, _ := newTestEngine(t, anchor, node, false)
	raw := signToken(t, anchor, builder, other, "nil.db.queries.read")
	_, err := engine.RequireBuilder(ctx, "bearer "+raw, "nil.db.queries", nil)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.Unauthorized))
}

func TestVerifyRejectsUnknownTrustAnchor(t *testing.T) {
	ctx := context.Background()
	anchor := newTestKey(t)
	impostor := newTestKey(t)
	node := newTestKey(t)
	builder := newTestKey(t)

	engine, _ := newTestEngine(t, anchor, node, false)
	raw := signToken(t, impostor, builder, node, "nil.db.queries.read")
	_, err := engine.RequireBuilder(ctx, "bearer "+raw, "nil.db.queries", nil)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.PaymentRequired))
}

func TestVerifyRejectsNonAttenuatingCommand(t *testing.T) {
	ctx := context.Background()
	anchor := newTestKey(t)
	node := newTestKey(t)
	builder := newTestKey(t)

	engine, s := newTestEngine(t, anchor, node, false)
	_, err := s.CreateBuilder(ctx, builder.did, "Acme")
	require.NoError(t, err)

	raw := signToken(t, anchor, builder, node, "nil.db.users.read")
	_, err = engine.RequireBuilder(ctx, "bearer "+raw, "nil.db.queries.read", nil)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.Forbidden))
}

func TestVerifyRejectsRevoked(t *testing.T) {
	ctx := context.Background()
	anchor := newTestKey(t)
	node := newTestKey(t)
	builder := newTestKey(t)

	engine, s := newTestEngine(t, anchor, node, true)
	_, err := s.CreateBuilder(ctx, builder.did, "Acme")
	require.NoError(t, err)

	raw := signToken(t, anchor, builder, node, "nil.db.queries.read")
	_, err = engine.RequireBuilder(ctx, "bearer "+raw, "nil.db.queries", nil)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.Unauthorized))
}

func TestVerifyAppliesPolicyPredicate(t *testing.T) {
	ctx := context.Background()
	anchor := newTestKey(t)
	node := newTestKey(t)
	builder := newTestKey(t)

	engine, s := newTestEngine(t, anchor, node, false)
	_, err := s.CreateBuilder(ctx, builder.did, "Acme")
	require.NoError(t, err)

	raw := signToken(t, anchor, builder, node, "nil.db.queries.read")
	deny := func(ctx context.Context, inv nuc.Token) bool { return false }
	_, err = engine.RequireBuilder(ctx, "bearer "+raw, "nil.db.queries", deny)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.Forbidden))
}
