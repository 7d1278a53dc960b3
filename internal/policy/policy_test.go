package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/policy"
	"github.com/nilnode/nildb/internal/store"
)

func did(t *testing.T, tag string) identity.DID {
	t.Helper()
	d, err := identity.ParseDID("did:nil:" + tag)
	require.NoError(t, err)
	return d
}

func TestRequireCollectionOwnerAllowsOwner(t *testing.T) {
	owner := did(t, "ab12")
	c := &store.Collection{Owner: owner}
	assert.NoError(t, policy.RequireCollectionOwner(owner, c))
}

func TestRequireCollectionOwnerRejectsOther(t *testing.T) {
	owner := did(t, "ab12")
	other := did(t, "cd34")
	c := &store.Collection{Owner: owner}
	err := policy.RequireCollectionOwner(other, c)
	require.Error(t, err)
	assert.True(t, nilerrors.Is(err, nilerrors.ResourceAccessDenied))
}

func TestRequireQueryOwnerRejectsOther(t *testing.T) {
	owner := did(t, "ab12")
	other := did(t, "cd34")
	q := &store.Query{Owner: owner}
	err := policy.RequireQueryOwner(other, q)
	require.Error(t, err)
}

func TestCanAccessDocumentStandardAlwaysAllowed(t *testing.T) {
	caller := did(t, "ab12")
	doc := database.Doc{}
	assert.True(t, policy.CanAccessDocument(caller, store.CollectionStandard, doc, identity.BitRead))
}

func TestCanAccessDocumentOwnedRequiresOwnerOrACL(t *testing.T) {
	owner := did(t, "ab12")
	stranger := did(t, "cd34")
	doc := database.Doc{"_owner": owner.String()}

	assert.True(t, policy.CanAccessDocument(owner, store.CollectionOwned, doc, identity.BitRead))
	assert.False(t, policy.CanAccessDocument(stranger, store.CollectionOwned, doc, identity.BitRead))
}

func TestCanAccessDocumentOwnedHonorsACLGrant(t *testing.T) {
	owner := did(t, "ab12")
	grantee := did(t, "cd34")
	doc := database.Doc{"_owner": owner.String()}

	policy.ApplyGrant(doc, identity.ACLEntry{Grantee: grantee, Read: true})

	assert.True(t, policy.CanAccessDocument(grantee, store.CollectionOwned, doc, identity.BitRead))
	assert.False(t, policy.CanAccessDocument(grantee, store.CollectionOwned, doc, identity.BitWrite))
}

func TestCanAccessDocumentOwnedRevokeRemovesAccess(t *testing.T) {
	owner := did(t, "ab12")
	grantee := did(t, "cd34")
	doc := database.Doc{"_owner": owner.String()}

	policy.ApplyGrant(doc, identity.ACLEntry{Grantee: grantee, Read: true})
	policy.ApplyRevoke(doc, grantee)

	assert.False(t, policy.CanAccessDocument(grantee, store.CollectionOwned, doc, identity.BitRead))
}

func TestApplyGrantOverwritesExistingEntry(t *testing.T) {
	owner := did(t, "ab12")
	grantee := did(t, "cd34")
	doc := database.Doc{"_owner": owner.String()}

	policy.ApplyGrant(doc, identity.ACLEntry{Grantee: grantee, Read: true})
	policy.ApplyGrant(doc, identity.ACLEntry{Grantee: grantee, Write: true})

	assert.False(t, policy.CanAccessDocument(grantee, store.CollectionOwned, doc, identity.BitRead))
	assert.True(t, policy.CanAccessDocument(grantee, store.CollectionOwned, doc, identity.BitWrite))

	acl, ok := doc["_acl"].([]any)
	require.True(t, ok)
	assert.Len(t, acl, 1)
}
