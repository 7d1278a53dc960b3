// Package sysinfo wraps the system/maintenance concern: the
// maintenance singleton, a node-info snapshot captured once at
// construction, log-level control, and the Prometheus instrumentation
// hooks the rest of the core calls into.
package sysinfo

import (
	"context"
	"sync"
	"time"

	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/store"
)

// NodeInfo is the static-at-boot identity of this node: {started, build,
// publicKey, url}. Maintenance is read live from the store on every
// snapshot since it can change at any time.
type NodeInfo struct {
	Started   time.Time    `json:"started"`
	Build     string       `json:"build"`
	PublicKey identity.DID `json:"publicKey"`
	URL       string       `json:"url"`
}

// Snapshot is the full node-info payload returned by about:
// {started, build, publicKey, url, maintenance}.
type Snapshot struct {
	NodeInfo
	Maintenance store.MaintenanceConfig `json:"maintenance"`
}

// System is the maintenance/node-info singleton wrapper. Started/Build/
// PublicKey/URL are fixed at construction and safe for concurrent reads
// without locking; only the log-level field mutates after boot, guarded
// by mu.
type System struct {
	entities *store.Store
	info     NodeInfo

	mu       sync.RWMutex
	logLevel string
}

// New captures a NodeInfo snapshot at process boot. build is typically a
// version string or git commit baked in at link time; publicKey is this
// node's own DID, derived from its signing keypair.
func New(entities *store.Store, build string, publicKey identity.DID, url string) *System {
	return &System{
		entities: entities,
		info: NodeInfo{
			Started:   time.Now().UTC(),
			Build:     build,
			PublicKey: publicKey,
			URL:       url,
		},
		logLevel: "info",
	}
}

// About returns the full node-info snapshot, reading the live maintenance
// state from the store.
func (s *System) About(ctx context.Context) (Snapshot, error) {
	maint, err := s.entities.GetMaintenance(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{NodeInfo: s.info, Maintenance: maint}, nil
}

// StartMaintenance flips the singleton to active.
func (s *System) StartMaintenance(ctx context.Context) error {
	return s.entities.StartMaintenance(ctx)
}

// StopMaintenance deletes the singleton, returning the node to normal
// operation.
func (s *System) StopMaintenance(ctx context.Context) error {
	return s.entities.StopMaintenance(ctx)
}

// InMaintenance reports whether the node is currently in maintenance.
// Exposed separately from About so an external maintenance middleware
// can consult it without decoding the full snapshot on every request.
func (s *System) InMaintenance(ctx context.Context) (bool, error) {
	cfg, err := s.entities.GetMaintenance(ctx)
	if err != nil {
		return false, err
	}
	return cfg.Active, nil
}

// LogLevel returns the currently configured log level.
func (s *System) LogLevel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logLevel
}

// SetLogLevel updates the level and applies it to the global zerolog
// logger, mirroring the cobra root command's --debug flag handling.
func (s *System) SetLogLevel(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}
	applyGlobalLevel(parsed)

	s.mu.Lock()
	s.logLevel = level
	s.mu.Unlock()
	return nil
}
