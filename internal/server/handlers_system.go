package server

import (
	"net/http"

	"github.com/nilnode/nildb/internal/nuc"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	snap, err := s.system.About(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": snap})
}

func (s *Server) handleMaintenanceStart(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.RequireAdmin(r.Context(), r.Header.Get("Authorization"), CmdSystemAdmin, nuc.AllowAll); err != nil {
		WriteError(w, err)
		return
	}
	if err := s.system.StartMaintenance(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

func (s *Server) handleMaintenanceStop(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.RequireAdmin(r.Context(), r.Header.Get("Authorization"), CmdSystemAdmin, nuc.AllowAll); err != nil {
		WriteError(w, err)
		return
	}
	if err := s.system.StopMaintenance(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": "ok"})
}

func (s *Server) handleLogLevelGet(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{"data": s.system.LogLevel()})
}

func (s *Server) handleLogLevelSet(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.RequireAdmin(r.Context(), r.Header.Get("Authorization"), CmdSystemAdmin, nuc.AllowAll); err != nil {
		WriteError(w, err)
		return
	}
	var body struct {
		Level string `json:"level"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if err := s.system.SetLogLevel(body.Level); err != nil {
		WriteError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"data": s.system.LogLevel()})
}
