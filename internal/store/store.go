// Package store implements the entity stores on top of the primary
// document-store namespace, plus the per-collection data namespace handle
// used by the data plane and query engine.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nilnode/nildb/internal/database"
)

const (
	tableBuilders    = "builders"
	tableUsers       = "users"
	tableQueries     = "queries"
	tableRuns        = "query_runs"
	tableConfig      = "config"
	tableCollections = "collections"
)

// Store is the entity-store layer over the primary namespace. The data
// namespace (one table per registered Collection) is addressed directly
// through the same *database.Store handle by the data plane and query
// engine, keyed by Collection._id.
type Store struct {
	primary *database.Store
	data    *database.Store
}

// New builds a Store from its two namespace handles — mirrors the
// teacher's two-database split (its migrations run against one *sql.DB per
// logical schema).
func New(primary, data *database.Store) *Store {
	return &Store{primary: primary, data: data}
}

// Primary exposes the raw primary-namespace handle for callers (query
// engine, lifecycle) that need cross-entity operations this package does
// not itself wrap.
func (s *Store) Primary() *database.Store { return s.primary }

// Data exposes the raw data-namespace handle, keyed per collection ID.
func (s *Store) Data() *database.Store { return s.data }

// EnsurePrimaryTables creates the primary-namespace tables if absent.
func (s *Store) EnsurePrimaryTables(ctx context.Context) error {
	for _, t := range []string{tableBuilders, tableUsers, tableQueries, tableRuns, tableConfig, tableCollections} {
		if err := s.primary.EnsureCollection(ctx, t); err != nil {
			return fmt.Errorf("store: ensuring table %q: %w", t, err)
		}
	}
	return nil
}

func encode(v any) (database.Doc, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encoding: %w", err)
	}
	var d database.Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("store: encoding: %w", err)
	}
	return d, nil
}

func decode(d database.Doc, v any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("store: decoding: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decoding: %w", err)
	}
	return nil
}
