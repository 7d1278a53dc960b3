package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
)

// CollectionType distinguishes per-document-owned collections from
// standard (no per-document ownership) ones.
type CollectionType string

const (
	CollectionOwned    CollectionType = "owned"
	CollectionStandard CollectionType = "standard"
)

// Collection is a named set of documents conforming to a JSON schema.
// Its data store lives in the data namespace, keyed by Collection._id.
type Collection struct {
	ID      string         `json:"_id"`
	Created time.Time      `json:"_created"`
	Updated time.Time      `json:"_updated"`
	Owner   identity.DID   `json:"owner"`
	Type    CollectionType `json:"type"`
	Name    string         `json:"name"`
	Schema  map[string]any `json:"schema"`
}

// CreateCollection persists a new Collection with a freshly assigned ID
// and creates its backing data-namespace table, keyed by the new ID, so
// the collection is immediately ready to accept documents. Schema
// compilation is the caller's responsibility (internal/jsonschema) before
// this is reached.
func (s *Store) CreateCollection(ctx context.Context, c *Collection) (*Collection, error) {
	now := database.Now()
	c.ID = uuid.NewString()
	c.Created = now
	c.Updated = now

	doc, err := encode(c)
	if err != nil {
		return nil, err
	}
	if err := s.primary.InsertOne(ctx, tableCollections, doc); err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "creating collection", err)
	}
	if err := s.data.EnsureCollection(ctx, c.ID); err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "creating collection data table", err)
	}
	return c, nil
}

// GetCollection loads a Collection by ID.
func (s *Store) GetCollection(ctx context.Context, id string) (*Collection, error) {
	doc, ok, err := s.primary.FindOne(ctx, tableCollections, database.Doc{"_id": id})
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "loading collection", err)
	}
	if !ok {
		return nil, nilerrors.New(nilerrors.CollectionNotFound, "collection not found")
	}
	var c Collection
	if err := decode(doc, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCollectionsByOwner lists every Collection owned by did.
func (s *Store) ListCollectionsByOwner(ctx context.Context, did identity.DID) ([]*Collection, error) {
	docs, err := s.primary.FindMany(ctx, tableCollections, database.Doc{"owner": did.String()}, database.FindOptions{})
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "listing collections", err)
	}
	out := make([]*Collection, 0, len(docs))
	for _, doc := range docs {
		var c Collection
		if err := decode(doc, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, nil
}

// DeleteCollection removes the Collection record by ID. Dropping its data
// namespace table is the lifecycle package's job.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	ok, err := s.primary.DeleteOne(ctx, tableCollections, database.Doc{"_id": id})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "deleting collection", err)
	}
	if !ok {
		return nilerrors.New(nilerrors.CollectionNotFound, "collection not found")
	}
	return nil
}
