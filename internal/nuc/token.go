package nuc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nilnode/nildb/internal/identity"
)

// Policy is an opaque claim payload carried by a token ("policies"); its
// shape is deliberately open. It is interpreted only by route-specific
// policy predicates, never by the envelope verifier itself.
type Policy map[string]any

// claims is the JWT claim set every token in an envelope carries.
type claims struct {
	jwt.RegisteredClaims
	Command  string   `json:"cmd"`
	Policies []Policy `json:"pol,omitempty"`
}

// Token is one parsed, signature-verified link in a capability envelope.
type Token struct {
	Issuer   identity.DID
	Subject  identity.DID
	Audience identity.DID
	Command  Command
	Policies []Policy
	IssuedAt time.Time
	Raw      string
}

// Hash returns the stable digest used to query the revocation service —
// the revocation service is keyed by token hash, not by token content, so
// a revoked delegation can be looked up without re-parsing it.
func (t Token) Hash() string {
	sum := sha256.Sum256([]byte(t.Raw))
	return hex.EncodeToString(sum[:])
}

// parseToken verifies raw as a compact EdDSA JWS and decodes its claims.
// The signing key is the issuer's own DID-embedded Ed25519 public key
// (self-certifying, did:key-style) — no external key lookup is needed to
// validate an individual token's signature.
func parseToken(raw string) (Token, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("nuc: unexpected signing method %q", t.Method.Alg())
		}
		issuerDID, err := identity.ParseDID(c.Issuer)
		if err != nil {
			return nil, fmt.Errorf("nuc: parsing issuer did: %w", err)
		}
		return issuerDID.PublicKey()
	}, jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		return Token{}, fmt.Errorf("nuc: %w", err)
	}
	if !parsed.Valid {
		return Token{}, fmt.Errorf("nuc: invalid token signature")
	}

	issuer, err := identity.ParseDID(c.Issuer)
	if err != nil {
		return Token{}, fmt.Errorf("nuc: invalid issuer: %w", err)
	}
	subject, err := identity.ParseDID(c.Subject)
	if err != nil {
		return Token{}, fmt.Errorf("nuc: invalid subject: %w", err)
	}
	var audience identity.DID
	if auds := c.Audience; len(auds) > 0 {
		audience, err = identity.ParseDID(auds[0])
		if err != nil {
			return Token{}, fmt.Errorf("nuc: invalid audience: %w", err)
		}
	}

	var issuedAt time.Time
	if c.IssuedAt != nil {
		issuedAt = c.IssuedAt.Time
	}

	return Token{
		Issuer:   issuer,
		Subject:  subject,
		Audience: audience,
		Command:  Command(c.Command),
		Policies: c.Policies,
		IssuedAt: issuedAt,
		Raw:      raw,
	}, nil
}
