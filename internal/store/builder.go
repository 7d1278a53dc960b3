package store

import (
	"context"
	"time"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
)

// Builder is the organization principal that registers Collections and
// Queries.
type Builder struct {
	ID          identity.DID `json:"_id"`
	Created     time.Time    `json:"_created"`
	Updated     time.Time    `json:"_updated"`
	Name        string       `json:"name"`
	Collections []string     `json:"collections"`
	Queries     []string     `json:"queries"`
}

// CreateBuilder registers a new Builder. Returns DuplicateEntry if the DID
// is already registered.
func (s *Store) CreateBuilder(ctx context.Context, did identity.DID, name string) (*Builder, error) {
	if _, ok, err := s.findBuilderDoc(ctx, did); err != nil {
		return nil, err
	} else if ok {
		return nil, nilerrors.New(nilerrors.DuplicateEntry, "builder already registered")
	}

	now := database.Now()
	b := &Builder{ID: did, Created: now, Updated: now, Name: name, Collections: []string{}, Queries: []string{}}
	doc, err := encode(b)
	if err != nil {
		return nil, err
	}
	doc["_id"] = did.String()
	if err := s.primary.InsertOne(ctx, tableBuilders, doc); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, nilerrors.New(nilerrors.DuplicateEntry, "builder already registered")
		}
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "creating builder", err)
	}
	return b, nil
}

func (s *Store) findBuilderDoc(ctx context.Context, did identity.DID) (database.Doc, bool, error) {
	doc, ok, err := s.primary.FindOne(ctx, tableBuilders, database.Doc{"_id": did.String()})
	if err != nil {
		return nil, false, nilerrors.Wrap(nilerrors.DatabaseError, "loading builder", err)
	}
	return doc, ok, nil
}

// GetBuilder loads a Builder by DID, or BuilderNotFound-shaped
// DocumentNotFound if absent.
func (s *Store) GetBuilder(ctx context.Context, did identity.DID) (*Builder, error) {
	doc, ok, err := s.findBuilderDoc(ctx, did)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nilerrors.New(nilerrors.DocumentNotFound, "builder not found")
	}
	var b Builder
	if err := decode(doc, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBuilderName renames a Builder.
func (s *Store) UpdateBuilderName(ctx context.Context, did identity.DID, name string) error {
	matched, err := s.primary.UpdateOne(ctx, tableBuilders,
		database.Doc{"_id": did.String()},
		database.Doc{"$set": database.Doc{"name": name, "_updated": database.Now()}},
	)
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "updating builder", err)
	}
	if !matched {
		return nilerrors.New(nilerrors.DocumentNotFound, "builder not found")
	}
	return nil
}

// DeleteBuilder removes the Builder record outright. Cascading to its
// Collections/Queries/data is the lifecycle package's job.
func (s *Store) DeleteBuilder(ctx context.Context, did identity.DID) error {
	ok, err := s.primary.DeleteOne(ctx, tableBuilders, database.Doc{"_id": did.String()})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "deleting builder", err)
	}
	if !ok {
		return nilerrors.New(nilerrors.DocumentNotFound, "builder not found")
	}
	return nil
}

// AddCollection adds collectionID to the Builder's owned-collections set
// (the denormalized half of the Builder↔Collection bidirectional link,
// design note).
func (s *Store) AddCollection(ctx context.Context, did identity.DID, collectionID string) error {
	return s.appendSetField(ctx, did, "collections", collectionID)
}

// RemoveCollection removes collectionID from the Builder's set.
func (s *Store) RemoveCollection(ctx context.Context, did identity.DID, collectionID string) error {
	return s.removeSetField(ctx, did, "collections", collectionID)
}

// AddQuery adds queryID to the Builder's owned-queries set.
func (s *Store) AddQuery(ctx context.Context, did identity.DID, queryID string) error {
	return s.appendSetField(ctx, did, "queries", queryID)
}

// RemoveQuery removes queryID from the Builder's set.
func (s *Store) RemoveQuery(ctx context.Context, did identity.DID, queryID string) error {
	return s.removeSetField(ctx, did, "queries", queryID)
}

func (s *Store) appendSetField(ctx context.Context, did identity.DID, field, value string) error {
	b, err := s.GetBuilder(ctx, did)
	if err != nil {
		return err
	}
	cur := builderSet(b, field)
	for _, v := range cur {
		if v == value {
			return nil
		}
	}
	cur = append(cur, value)
	return s.setBuilderField(ctx, did, field, cur)
}

func (s *Store) removeSetField(ctx context.Context, did identity.DID, field, value string) error {
	b, err := s.GetBuilder(ctx, did)
	if err != nil {
		return err
	}
	cur := builderSet(b, field)
	out := cur[:0]
	for _, v := range cur {
		if v != value {
			out = append(out, v)
		}
	}
	return s.setBuilderField(ctx, did, field, out)
}

func builderSet(b *Builder, field string) []string {
	if field == "collections" {
		return b.Collections
	}
	return b.Queries
}

func (s *Store) setBuilderField(ctx context.Context, did identity.DID, field string, values []string) error {
	if values == nil {
		values = []string{}
	}
	_, err := s.primary.UpdateOne(ctx, tableBuilders,
		database.Doc{"_id": did.String()},
		database.Doc{"$set": database.Doc{field: values, "_updated": database.Now()}},
	)
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "updating builder", err)
	}
	return nil
}
