// Package identity provides the primitive value types shared across the
// node: decentralized identifiers, document base fields and ACL bits.
package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDID is returned when a string does not parse as a DID.
var ErrInvalidDID = errors.New("identity: invalid did")

// DID is an opaque identifier of the form "did:<method>:<hex-public-key>".
// Equality is case-insensitive on the hex portion; DID always stores the
// canonical lowercase form so that Go's == and map-key comparisons are safe.
type DID string

// ParseDID normalises and validates a DID string.
//
// Canonical form is "did:<method>:<lowercase-hex>". Malformed input or a
// non-hex key segment is rejected.
func ParseDID(s string) (DID, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] != "did" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDID, s)
	}
	method := parts[1]
	key := parts[2]
	if method == "" || key == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDID, s)
	}
	if _, err := hex.DecodeString(key); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidDID, s, err)
	}
	return DID("did:" + method + ":" + strings.ToLower(key)), nil
}

// MustParseDID panics on invalid input; reserved for tests and constants.
func MustParseDID(s string) DID {
	d, err := ParseDID(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the canonical string form.
func (d DID) String() string { return string(d) }

// Equal compares two DIDs after normalisation. Unparseable values are
// compared literally so callers never panic on user input.
func (d DID) Equal(other DID) bool {
	na, errA := ParseDID(string(d))
	nb, errB := ParseDID(string(other))
	if errA != nil || errB != nil {
		return d == other
	}
	return na == nb
}

// Method returns the DID method segment ("key", "nil", etc).
func (d DID) Method() string {
	parts := strings.SplitN(string(d), ":", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// PublicKeyHex returns the hex-encoded key segment.
func (d DID) PublicKeyHex() string {
	parts := strings.SplitN(string(d), ":", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}

// PublicKey decodes the DID's key segment as an Ed25519 public key. Returns
// an error if the segment is not a valid Ed25519 key length.
func (d DID) PublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(d.PublicKeyHex())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDID, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidDID, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// DIDFromPublicKey builds a canonical "did:key:" DID from an Ed25519 public key.
func DIDFromPublicKey(pub ed25519.PublicKey) DID {
	return DID("did:key:" + hex.EncodeToString(pub))
}
