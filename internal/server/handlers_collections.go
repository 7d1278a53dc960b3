package server

import (
	"net/http"

	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/nuc"
	"github.com/nilnode/nildb/internal/policy"
	"github.com/nilnode/nildb/internal/store"
)

func (s *Server) handleCollectionCreate(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdCollectionsManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Type   store.CollectionType `json:"type"`
		Name   string               `json:"name"`
		Schema map[string]any       `json:"schema"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if body.Type != store.CollectionOwned && body.Type != store.CollectionStandard {
		WriteError(w, nilerrors.New(nilerrors.DataValidation, "type must be \"owned\" or \"standard\""))
		return
	}

	c := &store.Collection{Owner: req.Invoker, Type: body.Type, Name: body.Name, Schema: body.Schema}
	created, err := s.entities.CreateCollection(r.Context(), c)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := s.entities.AddCollection(r.Context(), req.Invoker, created.ID); err != nil {
		WriteError(w, err)
		return
	}
	s.cache.Taint(req.Invoker)
	JSON(w, http.StatusCreated, map[string]any{"data": created})
}

func (s *Server) handleCollectionList(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdCollectionsManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	list, err := s.entities.ListCollectionsByOwner(r.Context(), req.Invoker)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": list})
}

func (s *Server) handleCollectionDelete(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdCollectionsManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	id := r.PathValue("id")
	coll, err := s.entities.GetCollection(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := policy.RequireCollectionOwner(req.Invoker, coll); err != nil {
		WriteError(w, err)
		return
	}
	if err := s.lifec.RemoveCollection(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": "ok"})
}
