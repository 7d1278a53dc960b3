package server

import (
	"net/http"

	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/nuc"
)

func (s *Server) handleBuilderRegister(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.RequireNone(r.Context(), r.Header.Get("Authorization"), CmdBuildersRegister, nuc.AllowAll); err != nil {
		WriteError(w, err)
		return
	}

	var body struct {
		DID  string `json:"did"`
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	did, err := identity.ParseDID(body.DID)
	if err != nil {
		WriteError(w, nilerrors.Wrap(nilerrors.DataValidation, "parsing did", err))
		return
	}
	if did.Equal(s.nodeDID) {
		WriteError(w, nilerrors.New(nilerrors.DuplicateEntry, "cannot register this node's own did as a builder"))
		return
	}

	b, err := s.entities.CreateBuilder(r.Context(), did, body.Name)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusCreated, map[string]any{"data": b})
}

func (s *Server) handleBuilderMe(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdBuildersManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": req.Builder})
}

func (s *Server) handleBuilderUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdBuildersManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if err := s.entities.UpdateBuilderName(r.Context(), req.Invoker, body.Name); err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

func (s *Server) handleBuilderDelete(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdBuildersManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := s.lifec.RemoveBuilder(r.Context(), req.Invoker); err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": "ok"})
}
