// Package policy is the ownership & ACL policy layer: builder-owns-
// resource checks and the user-owns-document / ACL-grant evaluation for
// owned documents.
package policy

import (
	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
)

// RequireCollectionOwner confirms caller owns collection; ResourceAccessDenied
// on mismatch.
func RequireCollectionOwner(caller identity.DID, collection *store.Collection) error {
	if !collection.Owner.Equal(caller) {
		return nilerrors.New(nilerrors.ResourceAccessDenied, "caller does not own this collection")
	}
	return nil
}

// RequireQueryOwner confirms caller owns query.
func RequireQueryOwner(caller identity.DID, query *store.Query) error {
	if !query.Owner.Equal(caller) {
		return nilerrors.New(nilerrors.ResourceAccessDenied, "caller does not own this query")
	}
	return nil
}

// CanAccessDocument implements "user-owns-document": for a standard
// collection, access is governed only by builder-owns-collection (already
// checked by the caller) and this always permits; for an owned collection,
// the caller must be the document's "_owner" or hold an ACL entry granting
// the requested bit.
func CanAccessDocument(caller identity.DID, collectionType store.CollectionType, doc database.Doc, bit identity.Bit) bool {
	if collectionType != store.CollectionOwned {
		return true
	}

	ownerRaw, _ := doc["_owner"].(string)
	owner, err := identity.ParseDID(ownerRaw)
	if err == nil && owner.Equal(caller) {
		return true
	}

	acl := parseACL(doc["_acl"])
	entry, ok := acl.Find(caller)
	return ok && entry.Allows(bit)
}

func parseACL(raw any) identity.ACL {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make(identity.ACL, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		granteeRaw, _ := m["grantee"].(string)
		grantee, err := identity.ParseDID(granteeRaw)
		if err != nil {
			continue
		}
		out = append(out, identity.ACLEntry{
			Grantee: grantee,
			Read:    boolField(m["read"]),
			Write:   boolField(m["write"]),
			Execute: boolField(m["execute"]),
		})
	}
	return out
}

func boolField(v any) bool {
	b, _ := v.(bool)
	return b
}

// ApplyGrant implements ACL mutation rules: grant-access overwrites
// an existing entry for the same grantee atomically. Only the document
// owner may call this — the caller is responsible for that check.
func ApplyGrant(doc database.Doc, entry identity.ACLEntry) {
	acl := parseACL(doc["_acl"]).Grant(entry)
	doc["_acl"] = encodeACL(acl)
}

// ApplyRevoke removes grantee's ACL entry, if present.
func ApplyRevoke(doc database.Doc, grantee identity.DID) {
	acl := parseACL(doc["_acl"]).Revoke(grantee)
	doc["_acl"] = encodeACL(acl)
}

func encodeACL(acl identity.ACL) []any {
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
