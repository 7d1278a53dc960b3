package sysinfo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/store"
	"github.com/nilnode/nildb/internal/sysinfo"
)

func setup(t *testing.T) *store.Store {
	t.Helper()
	primary, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { primary.Close() })
	data, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { data.Close() })

	s := store.New(primary, data)
	require.NoError(t, s.EnsurePrimaryTables(context.Background()))
	return s
}

func did(t *testing.T) identity.DID {
	t.Helper()
	d, err := identity.ParseDID("did:nil:ab12")
	require.NoError(t, err)
	return d
}

func TestAboutReflectsInactiveMaintenanceByDefault(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	sys := sysinfo.New(s, "test-build", did(t), "https://node.example")

	snap, err := sys.About(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Maintenance.Active)
	assert.Equal(t, "test-build", snap.Build)
	assert.False(t, snap.Started.IsZero())
}

func TestStartStopMaintenanceRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	sys := sysinfo.New(s, "test-build", did(t), "https://node.example")

	require.NoError(t, sys.StartMaintenance(ctx))
	active, err := sys.InMaintenance(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	snap, err := sys.About(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Maintenance.Active)
	require.NotNil(t, snap.Maintenance.StartedAt)

	require.NoError(t, sys.StopMaintenance(ctx))
	active, err = sys.InMaintenance(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSetLogLevelRejectsUnknownLevel(t *testing.T) {
	s := setup(t)
	sys := sysinfo.New(s, "test-build", did(t), "https://node.example")

	err := sys.SetLogLevel("not-a-level")
	require.Error(t, err)
	assert.Equal(t, "info", sys.LogLevel())
}

func TestSetLogLevelAppliesAndIsReadable(t *testing.T) {
	s := setup(t)
	sys := sysinfo.New(s, "test-build", did(t), "https://node.example")

	require.NoError(t, sys.SetLogLevel("debug"))
	assert.Equal(t, "debug", sys.LogLevel())
}
