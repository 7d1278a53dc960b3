// Package nuc is the capability engine: parses bearer token envelopes,
// validates the signature chain and trust-anchor root, checks command
// attenuation and revocation, loads the calling subject, and applies a
// route-specific policy predicate.
package nuc

import (
	"context"
	"fmt"

	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
	"github.com/nilnode/nildb/internal/sysinfo"
)

// SubjectKind selects which subject store a guard loads from.
type SubjectKind int

const (
	SubjectBuilder SubjectKind = iota
	SubjectUser
	SubjectAdmin
	// SubjectNone skips the subject-store lookup entirely — used by routes
	// like builder registration where the subject record does not exist yet.
	SubjectNone
)

// RevocationChecker queries the external revocation service with a set of
// token hashes. Its interface, not its transport, is the
// core's concern — the HTTP client lives in internal/revocation.
type RevocationChecker interface {
	AnyRevoked(ctx context.Context, tokenHashes []string) (bool, error)
}

// PolicyFunc is the route-specific predicate applied last.
type PolicyFunc func(ctx context.Context, invocation Token) bool

// AllowAll is the default policy used by guards that impose no extra
// predicate beyond attenuation/ownership.
func AllowAll(context.Context, Token) bool { return true }

// Engine wires the verification pipeline together.
type Engine struct {
	nodeDID     identity.DID
	trustAnchor identity.DID
	revocation  RevocationChecker
	entities    *store.Store
	admins      map[identity.DID]struct{}
}

// NewEngine builds a capability Engine. admins lists the DIDs treated as
// node operators for requireAdmin.
func NewEngine(nodeDID, trustAnchor identity.DID, revocation RevocationChecker, entities *store.Store, admins []identity.DID) *Engine {
	set := make(map[identity.DID]struct{}, len(admins))
	for _, a := range admins {
		set[a] = struct{}{}
	}
	return &Engine{
		nodeDID:     nodeDID,
		trustAnchor: trustAnchor,
		revocation:  revocation,
		entities:    entities,
		admins:      set,
	}
}

// VerifiedRequest is the result of a successful Verify call.
type VerifiedRequest struct {
	Envelope *Envelope
	Invoker  identity.DID
	Builder  *store.Builder
	User     *store.User
}

// Verify runs the full pipeline against a raw Authorization header
// value. requiredCmd is the route's declared guard command; kind selects
// the subject store; policy is the route-specific predicate (AllowAll if
// none is needed).
func (e *Engine) Verify(ctx context.Context, authorizationHeader string, requiredCmd Command, kind SubjectKind, policy PolicyFunc) (result *VerifiedRequest, err error) {
	defer func() {
		if err != nil {
			sysinfo.RecordCapabilityCheck("denied")
		} else {
			sysinfo.RecordCapabilityCheck("granted")
		}
	}()

	env, err := ParseBearer(authorizationHeader)
	if err != nil {
		return nil, nilerrors.Wrap(nilerrors.Unauthorized, "parsing capability token", err)
	}
	if len(env.Tokens) == 0 {
		return nil, nilerrors.New(nilerrors.Unauthorized, "empty capability envelope")
	}

	invocation := env.Invocation()

	if err := e.validateChain(env); err != nil {
		return nil, nilerrors.Wrap(nilerrors.Unauthorized, "invalid capability chain", err)
	}

	if !env.Root().Issuer.Equal(e.trustAnchor) {
		return nil, nilerrors.New(nilerrors.PaymentRequired, "capability chain is not rooted at the trust anchor")
	}

	if !invocation.Command.Attenuates(requiredCmd) {
		return nil, nilerrors.Newf(nilerrors.Forbidden, "command %q does not attenuate required command %q", invocation.Command, requiredCmd)
	}

	if e.revocation != nil {
		hashes := make([]string, len(env.Tokens))
		for i, t := range env.Tokens {
			hashes[i] = t.Hash()
		}
		revoked, err := e.revocation.AnyRevoked(ctx, hashes)
		if err != nil {
			return nil, nilerrors.Wrap(nilerrors.DatabaseError, "checking revocation", err)
		}
		if revoked {
			return nil, nilerrors.New(nilerrors.Unauthorized, "capability token has been revoked")
		}
	}

	req := &VerifiedRequest{Envelope: env, Invoker: invocation.Subject}

	switch kind {
	case SubjectBuilder:
		b, err := e.entities.GetBuilder(ctx, invocation.Subject)
		if err != nil {
			return nil, nilerrors.Wrap(nilerrors.Unauthorized, "loading builder subject", err)
		}
		req.Builder = b
	case SubjectUser:
		u, err := e.entities.GetUser(ctx, invocation.Subject)
		if err != nil {
			return nil, nilerrors.Wrap(nilerrors.Unauthorized, "loading user subject", err)
		}
		req.User = u
	case SubjectAdmin:
		if _, ok := e.admins[invocation.Subject]; !ok {
			return nil, nilerrors.New(nilerrors.Unauthorized, "subject is not an administrator")
		}
	case SubjectNone:
		// no subject record to load
	default:
		return nil, fmt.Errorf("nuc: unknown subject kind %d", kind)
	}

	if policy == nil {
		policy = AllowAll
	}
	if !policy(ctx, invocation) {
		return nil, nilerrors.New(nilerrors.Forbidden, "policy predicate denied request")
	}

	return req, nil
}

// RequireBuilder is requireBuilder.
func (e *Engine) RequireBuilder(ctx context.Context, header string, cmd Command, policy PolicyFunc) (*VerifiedRequest, error) {
	return e.Verify(ctx, header, cmd, SubjectBuilder, policy)
}

// RequireUser is requireUser.
func (e *Engine) RequireUser(ctx context.Context, header string, cmd Command, policy PolicyFunc) (*VerifiedRequest, error) {
	return e.Verify(ctx, header, cmd, SubjectUser, policy)
}

// RequireAdmin is requireAdmin.
func (e *Engine) RequireAdmin(ctx context.Context, header string, cmd Command, policy PolicyFunc) (*VerifiedRequest, error) {
	return e.Verify(ctx, header, cmd, SubjectAdmin, policy)
}

// RequireNone runs the verification pipeline without loading a subject
// record, for routes whose subject does not exist yet (builder
// registration).
func (e *Engine) RequireNone(ctx context.Context, header string, cmd Command, policy PolicyFunc) (*VerifiedRequest, error) {
	return e.Verify(ctx, header, cmd, SubjectNone, policy)
}

// validateChain checks audience/issuer linkage across the chain and that
// the invocation token's audience is this node.
func (e *Engine) validateChain(env *Envelope) error {
	for i := 0; i < len(env.Tokens)-1; i++ {
		cur, next := env.Tokens[i], env.Tokens[i+1]
		if !cur.Audience.Equal(next.Issuer) {
			return fmt.Errorf("token %d audience does not match token %d issuer", i, i+1)
		}
		if !cur.Subject.Equal(next.Subject) {
			return fmt.Errorf("token %d subject does not match token %d subject", i, i+1)
		}
	}
	invocation := env.Invocation()
	if !invocation.Audience.Equal(e.nodeDID) {
		return fmt.Errorf("invocation token audience is not this node")
	}
	return nil
}
