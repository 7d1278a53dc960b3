package store

import (
	"context"
	"time"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
)

// DataRef is one (builder, collection, document) reference a User's owned
// data is indexed by.
type DataRef struct {
	Builder    identity.DID `json:"builder"`
	Collection string       `json:"collection"`
	Document   string       `json:"document"`
}

// LogOp enumerates the operation-log entry kinds.
type LogOp string

const (
	LogCreateData   LogOp = "create-data"
	LogUpdateData   LogOp = "update-data"
	LogDeleteData   LogOp = "delete-data"
	LogGrantAccess  LogOp = "grant-access"
	LogRevokeAccess LogOp = "revoke-access"
)

// LogEntry is one ordered operation-log record.
type LogEntry struct {
	Op         LogOp         `json:"op"`
	Collection string        `json:"collection"`
	Document   string        `json:"document"`
	Grantee    *identity.DID `json:"grantee,omitempty"`
	At         time.Time     `json:"at"`
}

// User is the end-user principal that owns individual documents.
type User struct {
	ID      identity.DID `json:"_id"`
	Created time.Time    `json:"_created"`
	Updated time.Time    `json:"_updated"`
	Data    []DataRef    `json:"data"`
	Logs    []LogEntry   `json:"logs"`
}

// EmptyData reports whether the User currently references no owned
// documents.
func (u *User) EmptyData() bool { return len(u.Data) == 0 }

func (s *Store) findUserDoc(ctx context.Context, did identity.DID) (database.Doc, bool, error) {
	doc, ok, err := s.primary.FindOne(ctx, tableUsers, database.Doc{"_id": did.String()})
	if err != nil {
		return nil, false, nilerrors.Wrap(nilerrors.DatabaseError, "loading user", err)
	}
	return doc, ok, nil
}

// GetUser loads a User by DID.
func (s *Store) GetUser(ctx context.Context, did identity.DID) (*User, error) {
	doc, ok, err := s.findUserDoc(ctx, did)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nilerrors.New(nilerrors.DocumentNotFound, "user not found")
	}
	var u User
	if err := decode(doc, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ensureUser loads the User record for did, creating an empty one if
// absent — a User record exists lazily, the first time it is referenced.
func (s *Store) ensureUser(ctx context.Context, did identity.DID) (*User, error) {
	u, err := s.GetUser(ctx, did)
	if err == nil {
		return u, nil
	}
	if !nilerrors.Is(err, nilerrors.DocumentNotFound) {
		return nil, err
	}

	now := database.Now()
	u = &User{ID: did, Created: now, Updated: now, Data: []DataRef{}, Logs: []LogEntry{}}
	doc, encErr := encode(u)
	if encErr != nil {
		return nil, encErr
	}
	doc["_id"] = did.String()
	if insErr := s.primary.InsertOne(ctx, tableUsers, doc); insErr != nil && !database.IsUniqueViolation(insErr) {
		return nil, nilerrors.Wrap(nilerrors.DatabaseError, "creating user", insErr)
	}
	return u, nil
}

func (s *Store) saveUser(ctx context.Context, u *User) error {
	u.Updated = database.Now()
	doc, err := encode(u)
	if err != nil {
		return err
	}
	matched, err := s.primary.UpdateOne(ctx, tableUsers, database.Doc{"_id": u.ID.String()}, doc)
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "saving user", err)
	}
	if !matched {
		return nilerrors.New(nilerrors.DocumentNotFound, "user not found")
	}
	return nil
}

// AddDataRef records that user now owns a new document, and appends a
// create-data log entry. Builds the User record lazily if needed.
func (s *Store) AddDataRef(ctx context.Context, user identity.DID, ref DataRef) error {
	u, err := s.ensureUser(ctx, user)
	if err != nil {
		return err
	}
	u.Data = append(u.Data, ref)
	u.Logs = append(u.Logs, LogEntry{Op: LogCreateData, Collection: ref.Collection, Document: ref.Document, At: database.Now()})
	return s.saveUser(ctx, u)
}

// RemoveDataRef removes a (collection, document) reference from the user's
// owned data, appends a delete-data log entry, and — per the empty-data
// predicate — deletes the User record outright if no references remain.
func (s *Store) RemoveDataRef(ctx context.Context, user identity.DID, collection, document string) error {
	u, err := s.GetUser(ctx, user)
	if err != nil {
		if nilerrors.Is(err, nilerrors.DocumentNotFound) {
			return nil
		}
		return err
	}

	out := u.Data[:0]
	for _, ref := range u.Data {
		if ref.Collection == collection && ref.Document == document {
			continue
		}
		out = append(out, ref)
	}
	u.Data = out
	u.Logs = append(u.Logs, LogEntry{Op: LogDeleteData, Collection: collection, Document: document, At: database.Now()})

	if u.EmptyData() {
		_, delErr := s.primary.DeleteOne(ctx, tableUsers, database.Doc{"_id": user.String()})
		if delErr != nil {
			return nilerrors.Wrap(nilerrors.DatabaseError, "deleting empty user", delErr)
		}
		return nil
	}
	return s.saveUser(ctx, u)
}

// AppendLog appends a log entry without mutating Data (used for update-data
// and grant/revoke-access entries).
func (s *Store) AppendLog(ctx context.Context, user identity.DID, entry LogEntry) error {
	u, err := s.ensureUser(ctx, user)
	if err != nil {
		return err
	}
	entry.At = database.Now()
	u.Logs = append(u.Logs, entry)
	return s.saveUser(ctx, u)
}

// DeleteUser removes a User record outright (used by builder-cascade
// fan-out when clearing all references).
func (s *Store) DeleteUser(ctx context.Context, user identity.DID) error {
	_, err := s.primary.DeleteOne(ctx, tableUsers, database.Doc{"_id": user.String()})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "deleting user", err)
	}
	return nil
}
