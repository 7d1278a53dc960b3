package server

import (
	"net/http"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/nuc"
	"github.com/nilnode/nildb/internal/policy"
	"github.com/nilnode/nildb/internal/store"
)

// resolveOwnedCollection loads coll/schema and confirms the caller owns
// it — every data-plane handler below operates on a resolved collection
// document already authorized this way.
func (s *Server) resolveOwnedCollection(r *http.Request, caller identity.DID, id string) (*store.Collection, error) {
	coll, _, err := s.collectionSchema(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireCollectionOwner(caller, coll); err != nil {
		return nil, err
	}
	return coll, nil
}

func (s *Server) handleUploadOwned(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdDataWrite, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Collection string                  `json:"collection"`
		Owner      string                  `json:"owner"`
		Data       []map[string]any        `json:"data"`
		ACL        []identity.ACLEntry     `json:"acl"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	coll, _, err := s.collectionSchema(r.Context(), body.Collection)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := policy.RequireCollectionOwner(req.Invoker, coll); err != nil {
		WriteError(w, err)
		return
	}
	owner, err := identity.ParseDID(body.Owner)
	if err != nil {
		WriteError(w, nilerrors.Wrap(nilerrors.DataValidation, "parsing owner did", err))
		return
	}
	_, schema, err := s.collectionSchema(r.Context(), body.Collection)
	if err != nil {
		WriteError(w, err)
		return
	}
	result, err := s.plane.UploadOwned(r.Context(), coll, schema, owner, body.ACL, body.Data)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": result})
}

func (s *Server) handleUploadStandard(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdDataWrite, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Collection string           `json:"collection"`
		Data       []map[string]any `json:"data"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	coll, schema, err := s.collectionSchema(r.Context(), body.Collection)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := policy.RequireCollectionOwner(req.Invoker, coll); err != nil {
		WriteError(w, err)
		return
	}
	result, err := s.plane.UploadStandard(r.Context(), coll, schema, body.Data)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": result})
}

func (s *Server) handleDataUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdDataWrite, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Collection string        `json:"collection"`
		Filter     database.Doc  `json:"filter"`
		Update     database.Doc  `json:"update"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	coll, err := s.resolveOwnedCollection(r, req.Invoker, body.Collection)
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := s.plane.Update(r.Context(), coll, body.Filter, body.Update)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": map[string]int{"updated": n}})
}

func (s *Server) handleDataDelete(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdDataWrite, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Collection string       `json:"collection"`
		Filter     database.Doc `json:"filter"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if len(body.Filter) == 0 {
		WriteError(w, nilerrors.New(nilerrors.DataValidation, "filter must not be empty"))
		return
	}
	coll, err := s.resolveOwnedCollection(r, req.Invoker, body.Collection)
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := s.plane.Delete(r.Context(), coll, body.Filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": map[string]int{"deleted": n}})
}

func (s *Server) handleDataFlush(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdDataWrite, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Collection string `json:"collection"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	coll, err := s.resolveOwnedCollection(r, req.Invoker, body.Collection)
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := s.plane.Flush(r.Context(), coll)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": map[string]int{"deleted": n}})
}

func (s *Server) handleDataTail(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdDataRead, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Collection string `json:"collection"`
		Limit      int    `json:"limit"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	coll, err := s.resolveOwnedCollection(r, req.Invoker, body.Collection)
	if err != nil {
		WriteError(w, err)
		return
	}
	docs, err := s.plane.Tail(r.Context(), coll, body.Limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": docs})
}

func (s *Server) handleDataRead(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdDataRead, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Collection string       `json:"collection"`
		Filter     database.Doc `json:"filter"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	coll, err := s.resolveOwnedCollection(r, req.Invoker, body.Collection)
	if err != nil {
		WriteError(w, err)
		return
	}
	docs, err := s.plane.Find(r.Context(), coll, body.Filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": docs})
}
