package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDID(t *testing.T) {
	d, err := ParseDID("did:x:AABBCC")
	require.NoError(t, err)
	assert.Equal(t, DID("did:x:aabbcc"), d)
}

func TestParseDIDInvalid(t *testing.T) {
	for _, s := range []string{"", "did:x", "notadid", "did::AA", "did:x:zz"} {
		_, err := ParseDID(s)
		assert.ErrorIs(t, err, ErrInvalidDID, "input %q", s)
	}
}

func TestDIDEqualCaseInsensitive(t *testing.T) {
	a := MustParseDID("did:x:AABBCC")
	b := MustParseDID("did:x:aabbcc")
	assert.True(t, a.Equal(b))
}

func TestDIDFromPublicKeyRoundTrip(t *testing.T) {
	pub, _, err := generateTestKey()
	require.NoError(t, err)

	did := DIDFromPublicKey(pub)
	recovered, err := did.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, pub, recovered)
}
