package server

import (
	"net/http"

	"github.com/nilnode/nildb/internal/nuc"
	"github.com/nilnode/nildb/internal/policy"
	"github.com/nilnode/nildb/internal/store"
)

func (s *Server) handleQueryCreate(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdQueriesManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var q store.Query
	if err := decodeBody(r, &q); err != nil {
		WriteError(w, err)
		return
	}
	created, err := s.queries.AddQuery(r.Context(), req.Invoker, &q)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusCreated, map[string]any{"data": created})
}

func (s *Server) handleQueryList(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdQueriesManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	list, err := s.entities.ListQueriesByOwner(r.Context(), req.Invoker)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": list})
}

func (s *Server) handleQueryDelete(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdQueriesManage, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	q, err := s.entities.GetQuery(r.Context(), body.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := policy.RequireQueryOwner(req.Invoker, q); err != nil {
		WriteError(w, err)
		return
	}
	if err := s.lifec.RemoveQuery(r.Context(), body.ID); err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

func (s *Server) handleQueryRun(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdQueriesExecute, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		ID        string         `json:"id"`
		Variables map[string]any `json:"variables"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	q, err := s.entities.GetQuery(r.Context(), body.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := policy.RequireQueryOwner(req.Invoker, q); err != nil {
		WriteError(w, err)
		return
	}
	run, err := s.queries.RunBackground(r.Context(), req.Invoker, q, body.Variables)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": run.ID})
}

func (s *Server) handleQueryJob(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.RequireBuilder(r.Context(), r.Header.Get("Authorization"), CmdQueriesExecute, nuc.AllowAll)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	run, err := s.queries.GetRun(r.Context(), req.Invoker, body.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": run})
}
