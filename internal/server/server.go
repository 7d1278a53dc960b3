// Package server is the HTTP boundary: a Server bundles the domain engines
// together and a Router exposes them over the endpoint surface using a
// stdlib http.ServeMux plus an ordered middleware chain.
package server

import (
	"context"

	"github.com/nilnode/nildb/internal/dataplane"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/jsonschema"
	"github.com/nilnode/nildb/internal/lifecycle"
	"github.com/nilnode/nildb/internal/nuc"
	"github.com/nilnode/nildb/internal/queryengine"
	"github.com/nilnode/nildb/internal/store"
	"github.com/nilnode/nildb/internal/sysinfo"
)

// Server bundles every domain engine a handler might need. It holds no
// HTTP-specific state; that lives in Router.
type Server struct {
	entities *store.Store
	engine   *nuc.Engine
	plane    *dataplane.Plane
	queries  *queryengine.Engine
	lifec    *lifecycle.Manager
	cache    *lifecycle.BuilderCache
	system   *sysinfo.System
	nodeDID  identity.DID
}

// New builds a Server from its already-constructed domain engines.
func New(
	entities *store.Store,
	engine *nuc.Engine,
	plane *dataplane.Plane,
	queries *queryengine.Engine,
	lifec *lifecycle.Manager,
	cache *lifecycle.BuilderCache,
	system *sysinfo.System,
	nodeDID identity.DID,
) *Server {
	return &Server{
		entities: entities,
		engine:   engine,
		plane:    plane,
		queries:  queries,
		lifec:    lifec,
		cache:    cache,
		system:   system,
		nodeDID:  nodeDID,
	}
}

// collectionSchema loads a Collection by ID and compiles its stored schema.
// Shared by every handler that needs both.
func (s *Server) collectionSchema(ctx context.Context, id string) (*store.Collection, *jsonschema.Schema, error) {
	coll, err := s.entities.GetCollection(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	schema, err := jsonschema.Compile(coll.Schema)
	if err != nil {
		return nil, nil, err
	}
	return coll, schema, nil
}
