package dataplane

import (
	"context"
	"time"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
	"github.com/nilnode/nildb/internal/sysinfo"
)

// Update applies update to every document matching filter. For matched
// owned documents it appends one update-data log entry per document to its
// owner's log.
func (p *Plane) Update(ctx context.Context, coll *store.Collection, filter, update database.Doc) (n int, err error) {
	start := time.Now()
	defer func() { sysinfo.RecordDataPlaneOp("update", outcome(err), time.Since(start)) }()

	owners, err := p.ownersOf(ctx, coll, filter)
	if err != nil {
		return 0, err
	}

	n, err = p.entities.Data().UpdateMany(ctx, coll.ID, filter, update)
	if err != nil {
		return 0, nilerrors.Wrap(nilerrors.DatabaseError, "updating documents", err)
	}

	if coll.Type == store.CollectionOwned {
		for _, ref := range owners {
			if err := p.entities.AppendLog(ctx, ref.owner, store.LogEntry{Op: store.LogUpdateData, Collection: coll.ID, Document: ref.document}); err != nil {
				return n, err
			}
		}
	}

	return n, nil
}

// Delete removes every document matching a non-empty filter. For each
// matched owned document it removes the owner's reference (deleting the
// User record if its data set becomes empty) and appends a delete-data log
// entry.
func (p *Plane) Delete(ctx context.Context, coll *store.Collection, filter database.Doc) (n int, err error) {
	start := time.Now()
	defer func() { sysinfo.RecordDataPlaneOp("delete", outcome(err), time.Since(start)) }()

	if len(filter) == 0 {
		return 0, nilerrors.New(nilerrors.DataValidation, "delete requires a non-empty filter")
	}
	return p.deleteMatching(ctx, coll, filter)
}

// Flush deletes every document in the collection, applying the same
// user-reference bookkeeping as Delete.
func (p *Plane) Flush(ctx context.Context, coll *store.Collection) (n int, err error) {
	start := time.Now()
	defer func() { sysinfo.RecordDataPlaneOp("flush", outcome(err), time.Since(start)) }()
	return p.deleteMatching(ctx, coll, database.Doc{})
}

func (p *Plane) deleteMatching(ctx context.Context, coll *store.Collection, filter database.Doc) (int, error) {
	owners, err := p.ownersOf(ctx, coll, filter)
	if err != nil {
		return 0, err
	}

	n, err := p.entities.Data().DeleteMany(ctx, coll.ID, filter)
	if err != nil {
		return 0, nilerrors.Wrap(nilerrors.DatabaseError, "deleting documents", err)
	}

	if coll.Type == store.CollectionOwned {
		for _, ref := range owners {
			if err := p.entities.RemoveDataRef(ctx, ref.owner, coll.ID, ref.document); err != nil {
				return n, err
			}
		}
	}

	return n, nil
}

type ownedRef struct {
	owner    identity.DID
	document string
}

// ownersOf loads (owner, document-id) pairs for every owned document that
// currently matches filter, before the mutation that will remove or change
// them executes.
func (p *Plane) ownersOf(ctx context.Context, coll *store.Collection, filter database.Doc) ([]ownedRef, error) {
	if coll.Type != store.CollectionOwned {
		return nil, nil
	}

	docs, err := p.entities.Data().FindMany(ctx, coll.ID, filter, database.FindOptions{})
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "loading documents for owner bookkeeping", err)
	}

	out := make([]ownedRef, 0, len(docs))
	for _, d := range docs {
		ownerRaw, _ := d["_owner"].(string)
		owner, err := identity.ParseDID(ownerRaw)
		if err != nil {
			continue
		}
		id, _ := d["_id"].(string)
		out = append(out, ownedRef{owner: owner, document: id})
	}
	return out, nil
}

// Tail returns the limit most recently created documents, newest first.
func (p *Plane) Tail(ctx context.Context, coll *store.Collection, limit int) (docs []database.Doc, err error) {
	start := time.Now()
	defer func() { sysinfo.RecordDataPlaneOp("tail", outcome(err), time.Since(start)) }()

	docs, err = p.entities.Data().FindMany(ctx, coll.ID, database.Doc{}, database.FindOptions{
		Sort:  []database.SortSpec{{Field: "_created", Desc: true}},
		Limit: limit,
	})
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "tailing collection", err)
	}
	return docs, nil
}

// Find returns every document matching filter.
func (p *Plane) Find(ctx context.Context, coll *store.Collection, filter database.Doc) (docs []database.Doc, err error) {
	start := time.Now()
	defer func() { sysinfo.RecordDataPlaneOp("find", outcome(err), time.Since(start)) }()

	docs, err = p.entities.Data().FindMany(ctx, coll.ID, filter, database.FindOptions{})
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "finding documents", err)
	}
	return docs, nil
}

// FindOne returns the first document matching filter.
func (p *Plane) FindOne(ctx context.Context, coll *store.Collection, filter database.Doc) (doc database.Doc, ok bool, err error) {
	start := time.Now()
	defer func() { sysinfo.RecordDataPlaneOp("findOne", outcome(err), time.Since(start)) }()

	doc, ok, err = p.entities.Data().FindOne(ctx, coll.ID, filter)
	if err != nil {
		return nil, false, nilerrors.Wrap(nilerrors.DatabaseError, "finding document", err)
	}
	return doc, ok, nil
}
