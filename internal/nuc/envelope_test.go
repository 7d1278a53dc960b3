package nuc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/nuc"
)

func TestParseBearerSingleToken(t *testing.T) {
	anchor := newTestKey(t)
	node := newTestKey(t)
	raw := signToken(t, anchor, anchor, node, "nil.db.queries.read")

	env, err := nuc.ParseBearer("bearer " + raw)
	require.NoError(t, err)
	require.Len(t, env.Tokens, 1)
	assert.Equal(t, nuc.Command("nil.db.queries.read"), env.Invocation().Command)
	assert.True(t, env.Root().Issuer.Equal(anchor.did))
}

func TestParseBearerChain(t *testing.T) {
	anchor := newTestKey(t)
	delegate := newTestKey(t)
	node := newTestKey(t)

	root := signToken(t, anchor, anchor, delegate, "nil.db.queries")
	invocation := signToken(t, delegate, anchor, node, "nil.db.queries.read")

	env, err := nuc.ParseBearer("bearer " + root + "/" + invocation)
	require.NoError(t, err)
	require.Len(t, env.Tokens, 2)
}

func TestParseBearerRejectsMissingScheme(t *testing.T) {
	_, err := nuc.ParseBearer("Basic abc")
	require.Error(t, err)
}

func TestParseBearerRejectsGarbage(t *testing.T) {
	_, err := nuc.ParseBearer("bearer not-a-jwt")
	require.Error(t, err)
}
