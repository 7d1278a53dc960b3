package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestACLGrantOverwritesSameGrantee(t *testing.T) {
	grantee := MustParseDID("did:x:AA")
	a := ACL{{Grantee: grantee, Read: true}}

	a = a.Grant(ACLEntry{Grantee: grantee, Write: true})

	assert.Len(t, a, 1)
	entry, ok := a.Find(grantee)
	assert.True(t, ok)
	assert.False(t, entry.Read)
	assert.True(t, entry.Write)
}

func TestACLRevoke(t *testing.T) {
	g1 := MustParseDID("did:x:AA")
	g2 := MustParseDID("did:x:BB")
	a := ACL{{Grantee: g1, Read: true}, {Grantee: g2, Read: true}}

	a = a.Revoke(g1)

	assert.Len(t, a, 1)
	_, ok := a.Find(g1)
	assert.False(t, ok)
}

func TestACLValidRejectsDuplicateGrantee(t *testing.T) {
	g := MustParseDID("did:x:AA")
	a := ACL{{Grantee: g}, {Grantee: g}}
	assert.False(t, a.Valid())
}

func TestACLEntryAllows(t *testing.T) {
	e := ACLEntry{Read: true, Write: false, Execute: true}
	assert.True(t, e.Allows(BitRead))
	assert.False(t, e.Allows(BitWrite))
	assert.True(t, e.Allows(BitExecute))
}
