// Package lifecycle implements cascading deletion fan-out and the
// builder cache with taint semantics that keeps the denormalized
// Builder<->Collection/Query links eventually consistent.
package lifecycle

import (
	"context"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
)

// Manager performs the cascade operations. Callers are responsible for
// the prior capability and ownership checks; Manager assumes
// its caller is authorized.
type Manager struct {
	entities *store.Store
	cache    *BuilderCache
}

// New builds a Manager over entities, sharing cache with whatever else
// taints/reads the builder cache (e.g. internal/queryengine).
func New(entities *store.Store, cache *BuilderCache) *Manager {
	return &Manager{entities: entities, cache: cache}
}

// RemoveBuilder performs the builder-deletion fan-out: snapshot the builder's collections/queries, delete the
// builder record, delete every snapshotted collection and query, and for
// each collection walk its owned documents removing the owners'
// references before dropping the collection's data store.
func (m *Manager) RemoveBuilder(ctx context.Context, id identity.DID) error {
	b, err := m.entities.GetBuilder(ctx, id)
	if err != nil {
		return err
	}
	collections := append([]string(nil), b.Collections...)
	queries := append([]string(nil), b.Queries...)

	if err := m.entities.DeleteBuilder(ctx, id); err != nil {
		return err
	}
	m.cache.Taint(id)

	for _, qid := range queries {
		if err := m.entities.DeleteQuery(ctx, qid); err != nil && !nilerrors.Is(err, nilerrors.DocumentNotFound) {
			return err
		}
	}

	for _, cid := range collections {
		if err := m.dropCollectionData(ctx, cid); err != nil {
			return err
		}
	}

	return nil
}

// RemoveCollection performs removeCollection: unlinks the collection
// from its owning Builder, removes owner references for any owned
// documents it held, drops its data store, and deletes the Collection
// record.
func (m *Manager) RemoveCollection(ctx context.Context, id string) error {
	coll, err := m.entities.GetCollection(ctx, id)
	if err != nil {
		return err
	}

	if err := m.entities.RemoveCollection(ctx, coll.Owner, id); err != nil {
		return err
	}
	m.cache.Taint(coll.Owner)

	if err := m.removeOwnerReferences(ctx, coll); err != nil {
		return err
	}

	if err := m.entities.Data().DropCollection(ctx, id); err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "dropping collection data store", err)
	}

	return m.entities.DeleteCollection(ctx, id)
}

// RemoveQuery performs removeQuery: unlinks the query from its owning
// Builder and deletes the Query record. In-flight background QueryRuns
// are not cancelled; one still pending or running the next time GetRun
// re-resolves ownership fails with a "query not found" error recorded on
// the run.
func (m *Manager) RemoveQuery(ctx context.Context, id string) error {
	q, err := m.entities.GetQuery(ctx, id)
	if err != nil {
		return err
	}
	if err := m.entities.RemoveQuery(ctx, q.Owner, id); err != nil {
		return err
	}
	m.cache.Taint(q.Owner)
	return m.entities.DeleteQuery(ctx, id)
}

// dropCollectionData loads the collection (it may already be gone from
// the Builder's set but its record and data store still exist), removes
// owner references, drops the data store, and deletes the Collection
// record. Used by RemoveBuilder, which has already deleted the Builder
// itself so there is no Builder-side link left to unwind.
func (m *Manager) dropCollectionData(ctx context.Context, collectionID string) error {
	coll, err := m.entities.GetCollection(ctx, collectionID)
	if err != nil {
		if nilerrors.Is(err, nilerrors.CollectionNotFound) {
			return nil
		}
		return err
	}

	if err := m.removeOwnerReferences(ctx, coll); err != nil {
		return err
	}

	if err := m.entities.Data().DropCollection(ctx, collectionID); err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "dropping collection data store", err)
	}

	return m.entities.DeleteCollection(ctx, collectionID)
}

// removeOwnerReferences walks every owned document in coll (a no-op for
// standard collections) and removes the reference from each document
// owner's User record.
func (m *Manager) removeOwnerReferences(ctx context.Context, coll *store.Collection) error {
	if coll.Type != store.CollectionOwned {
		return nil
	}

	docs, err := m.entities.Data().FindMany(ctx, coll.ID, database.Doc{}, database.FindOptions{})
	if err != nil {
		if database.IsCollectionNotFound(err) {
			return nil
		}
		return nilerrors.Wrap(nilerrors.DatabaseError, "loading owned documents for cascade", err)
	}

	for _, d := range docs {
		ownerRaw, _ := d["_owner"].(string)
		owner, err := identity.ParseDID(ownerRaw)
		if err != nil {
			continue
		}
		id, _ := d["_id"].(string)
		if err := m.entities.RemoveDataRef(ctx, owner, coll.ID, id); err != nil {
			return err
		}
	}
	return nil
}
