package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
)

// Variable describes one named, typed placeholder inside a stored Query's
// pipeline.
type Variable struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
}

// Query is a stored aggregation pipeline with typed variable placeholders.
type Query struct {
	ID         string              `json:"_id"`
	Created    time.Time           `json:"_created"`
	Updated    time.Time           `json:"_updated"`
	Owner      identity.DID        `json:"owner"`
	Name       string              `json:"name"`
	Collection string              `json:"collection"`
	Variables  map[string]Variable `json:"variables"`
	Pipeline   []map[string]any    `json:"pipeline"`
}

// CreateQuery persists a new Query with a freshly assigned ID. Ownership
// validation and pipeline/variable-path validation happen in the caller
// (the query engine) before this is reached; this method only writes the
// record.
func (s *Store) CreateQuery(ctx context.Context, q *Query) (*Query, error) {
	now := database.Now()
	q.ID = uuid.NewString()
	q.Created = now
	q.Updated = now

	doc, err := encode(q)
	if err != nil {
		return nil, err
	}
	if err := s.primary.InsertOne(ctx, tableQueries, doc); err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "creating query", err)
	}
	return q, nil
}

// GetQuery loads a Query by ID.
func (s *Store) GetQuery(ctx context.Context, id string) (*Query, error) {
	doc, ok, err := s.primary.FindOne(ctx, tableQueries, database.Doc{"_id": id})
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "loading query", err)
	}
	if !ok {
		return nil, nilerrors.New(nilerrors.DocumentNotFound, "query not found")
	}
	var q Query
	if err := decode(doc, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQueriesByOwner lists every Query owned by did.
func (s *Store) ListQueriesByOwner(ctx context.Context, did identity.DID) ([]*Query, error) {
	docs, err := s.primary.FindMany(ctx, tableQueries, database.Doc{"owner": did.String()}, database.FindOptions{})
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "listing queries", err)
	}
	out := make([]*Query, 0, len(docs))
	for _, doc := range docs {
		var q Query
		if err := decode(doc, &q); err != nil {
			return nil, err
		}
		out = append(out, &q)
	}
	return out, nil
}

// DeleteQuery removes the Query record by ID.
func (s *Store) DeleteQuery(ctx context.Context, id string) error {
	ok, err := s.primary.DeleteOne(ctx, tableQueries, database.Doc{"_id": id})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "deleting query", err)
	}
	if !ok {
		return nilerrors.New(nilerrors.DocumentNotFound, "query not found")
	}
	return nil
}
