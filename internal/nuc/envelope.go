package nuc

import (
	"fmt"
	"strings"
)

// Envelope is a parsed chain of delegation tokens terminating in an
// invocation token. Tokens[0]
// is the root; Tokens[len-1] is the invocation.
type Envelope struct {
	Tokens []Token
}

// Root returns the chain's root token.
func (e Envelope) Root() Token { return e.Tokens[0] }

// Invocation returns the chain's innermost (final) token.
func (e Envelope) Invocation() Token { return e.Tokens[len(e.Tokens)-1] }

// ParseBearer extracts and parses the envelope from an Authorization header
// value. The header must use scheme "bearer"; the chain itself is a
// "/"-separated sequence of compact EdDSA JWS tokens, root first.
func ParseBearer(header string) (*Envelope, error) {
	const scheme = "bearer "
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return nil, fmt.Errorf("nuc: missing bearer scheme")
	}
	rest := strings.TrimSpace(header[len(scheme):])
	if rest == "" {
		return nil, fmt.Errorf("nuc: empty bearer token")
	}

	parts := strings.Split(rest, "/")
	tokens := make([]Token, 0, len(parts))
	for i, raw := range parts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, fmt.Errorf("nuc: empty token at chain position %d", i)
		}
		tok, err := parseToken(raw)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return &Envelope{Tokens: tokens}, nil
}
