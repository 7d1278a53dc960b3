// Package dataplane implements the per-collection document operations
//: owned/standard upload, update, delete, flush, tail, find and
// findOne, together with the user-reference and log bookkeeping those
// operations trigger on owned collections.
package dataplane

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/jsonschema"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
	"github.com/nilnode/nildb/internal/sysinfo"
)

// Plane operates against a resolved Collection's data-namespace table.
// Callers (the HTTP layer) are responsible for the prior capability and
// ownership checks — Plane assumes the caller is authorized
// for the operation it's asked to perform.
type Plane struct {
	entities *store.Store
}

// New builds a Plane over the given entity-store layer.
func New(entities *store.Store) *Plane {
	return &Plane{entities: entities}
}

// UploadResult is the common upload response shape.
type UploadResult struct {
	Created []string        `json:"created"`
	Errors  []UploadFailure `json:"errors"`
}

// UploadFailure reports one rejected document from an upload batch.
type UploadFailure struct {
	Reason string         `json:"reason"`
	Doc    map[string]any `json:"doc"`
}

// UploadOwned inserts partial documents into an owned collection, stamping
// each with _id/_created/_updated/_owner/_acl, validating against the
// collection's compiled schema, and recording the owner's data references
// and logs.
func (p *Plane) UploadOwned(ctx context.Context, coll *store.Collection, schema *jsonschema.Schema, owner identity.DID, acl []identity.ACLEntry, docs []map[string]any) (result UploadResult, err error) {
	start := time.Now()
	defer func() { sysinfo.RecordDataPlaneOp("uploadOwned", outcome(err), time.Since(start)) }()

	if coll.Type != store.CollectionOwned {
		return UploadResult{}, nilerrors.New(nilerrors.DataValidation, "uploadOwned requires an owned collection")
	}

	prepared := make([]database.Doc, 0, len(docs))

	for _, d := range docs {
		doc, perr := prepareDoc(d, schema)
		if perr != nil {
			result.Errors = append(result.Errors, UploadFailure{Reason: perr.Error(), Doc: d})
			continue
		}
		doc["_owner"] = owner.String()
		doc["_acl"] = encodeACLEntries(acl)
		prepared = append(prepared, doc)
	}

	inserted, err := p.insertMany(ctx, coll.ID, prepared)
	if err != nil {
		return UploadResult{}, err
	}
	result.Created = append(result.Created, inserted.Inserted...)
	result.Errors = append(result.Errors, failuresFrom(inserted.Failures)...)

	for _, id := range inserted.Inserted {
		if err := p.entities.AddDataRef(ctx, owner, store.DataRef{Builder: coll.Owner, Collection: coll.ID, Document: id}); err != nil {
			return UploadResult{}, err
		}
		if len(acl) > 0 {
			for _, e := range acl {
				if err := p.entities.AppendLog(ctx, owner, store.LogEntry{Op: store.LogGrantAccess, Collection: coll.ID, Document: id, Grantee: granteePtr(e.Grantee)}); err != nil {
					return UploadResult{}, err
				}
			}
		}
	}

	return result, nil
}

// UploadStandard inserts partial documents into a standard collection.
// No user bookkeeping is triggered.
func (p *Plane) UploadStandard(ctx context.Context, coll *store.Collection, schema *jsonschema.Schema, docs []map[string]any) (result UploadResult, err error) {
	start := time.Now()
	defer func() { sysinfo.RecordDataPlaneOp("uploadStandard", outcome(err), time.Since(start)) }()

	if coll.Type != store.CollectionStandard {
		return UploadResult{}, nilerrors.New(nilerrors.DataValidation, "uploadStandard requires a standard collection")
	}

	prepared := make([]database.Doc, 0, len(docs))

	for _, d := range docs {
		doc, perr := prepareDoc(d, schema)
		if perr != nil {
			result.Errors = append(result.Errors, UploadFailure{Reason: perr.Error(), Doc: d})
			continue
		}
		prepared = append(prepared, doc)
	}

	inserted, err := p.insertMany(ctx, coll.ID, prepared)
	if err != nil {
		return UploadResult{}, err
	}
	result.Created = append(result.Created, inserted.Inserted...)
	result.Errors = append(result.Errors, failuresFrom(inserted.Failures)...)
	return result, nil
}

func (p *Plane) insertMany(ctx context.Context, table string, docs []database.Doc) (database.InsertManyResult, error) {
	if len(docs) == 0 {
		return database.InsertManyResult{}, nil
	}
	res, err := p.entities.Data().InsertMany(ctx, table, docs)
	if err != nil {
		return database.InsertManyResult{}, nilerrors.Wrap(nilerrors.DatabaseError, "inserting documents", err)
	}
	return res, nil
}

func prepareDoc(d map[string]any, schema *jsonschema.Schema) (database.Doc, error) {
	doc := database.Doc{}
	for k, v := range d {
		doc[k] = v
	}

	now := database.Now()
	if id, ok := doc["_id"].(string); !ok || id == "" {
		doc["_id"] = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("_id must be a uuid: %w", err)
	}
	doc["_created"] = now.Format(time.RFC3339Nano)
	doc["_updated"] = now.Format(time.RFC3339Nano)

	if _, err := database.CoerceFilter(doc); err != nil {
		return nil, err
	}

	if schema != nil {
		payload := map[string]any(doc)
		if errs := schema.Validate(payload); len(errs) > 0 {
			return nil, fmt.Errorf("%w: %v", errDataValidation, errs)
		}
	}

	return doc, nil
}

var errDataValidation = nilerrors.New(nilerrors.DataValidation, "schema validation failed")

func failuresFrom(fails []database.InsertFailure) []UploadFailure {
	out := make([]UploadFailure, 0, len(fails))
	for _, f := range fails {
		out = append(out, UploadFailure{Reason: f.Reason.Error(), Doc: map[string]any(f.Doc)})
	}
	return out
}

func encodeACLEntries(acl []identity.ACLEntry) []any {
	out := make([]any, 0, len(acl))
	for _, e := range acl {
		out = append(out, map[string]any{
			"grantee": e.Grantee.String(),
			"read":    e.Read,
			"write":   e.Write,
			"execute": e.Execute,
		})
	}
	return out
}

func granteePtr(did identity.DID) *identity.DID {
	d := did
	return &d
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
