package nuc_test

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/identity"
)

type testKey struct {
	priv ed25519.PrivateKey
	did  identity.DID
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return testKey{priv: priv, did: identity.DIDFromPublicKey(pub)}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Command  string `json:"cmd"`
	Policies []any  `json:"pol,omitempty"`
}

func signToken(t *testing.T, issuer, subject, audience testKey, command string) string {
	t.Helper()
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer.did.String(),
			Subject:   subject.did.String(),
			Audience:  jwt.ClaimStrings{audience.did.String()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Command: command,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := tok.SignedString(issuer.priv)
	require.NoError(t, err)
	return signed
}
