package server

import (
	"net/http"

	"github.com/nilnode/nildb/internal/nuc"
)

// Capability commands guarding each route. Every guard checks that the
// invocation token's command attenuates one of these.
const (
	CmdBuildersRegister  nuc.Command = "nil.db.builders.register"
	CmdBuildersManage    nuc.Command = "nil.db.builders.manage"
	CmdCollectionsManage nuc.Command = "nil.db.collections.manage"
	CmdQueriesManage     nuc.Command = "nil.db.queries.manage"
	CmdQueriesExecute    nuc.Command = "nil.db.queries.execute"
	CmdDataWrite         nuc.Command = "nil.db.data.write"
	CmdDataRead          nuc.Command = "nil.db.data.read"
	CmdSystemAdmin       nuc.Command = "nil.db.system.admin"
)

// Router exposes a Server over the node's HTTP surface, chaining
// middleware in front of a stdlib ServeMux.
type Router struct {
	srv         *Server
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewRouter(srv *Server) *Router {
	r := &Router{srv: srv, mux: http.NewServeMux()}
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.setupRoutes()
	return r
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var h http.Handler = r.mux
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](h)
	}
	h.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("GET /health", r.srv.handleHealth)
	r.mux.HandleFunc("GET /v1/system/about", r.srv.handleAbout)
	r.mux.HandleFunc("POST /v1/system/maintenance/start", r.srv.handleMaintenanceStart)
	r.mux.HandleFunc("POST /v1/system/maintenance/stop", r.srv.handleMaintenanceStop)
	r.mux.HandleFunc("GET /v1/system/log-level", r.srv.handleLogLevelGet)
	r.mux.HandleFunc("POST /v1/system/log-level", r.srv.handleLogLevelSet)

	r.mux.HandleFunc("POST /v1/builders/register", r.srv.handleBuilderRegister)
	r.mux.HandleFunc("GET /v1/builders/me", r.srv.handleBuilderMe)
	r.mux.HandleFunc("POST /v1/builders/me", r.srv.handleBuilderUpdate)
	r.mux.HandleFunc("DELETE /v1/builders/me", r.srv.handleBuilderDelete)

	r.mux.HandleFunc("POST /v1/collections", r.srv.handleCollectionCreate)
	r.mux.HandleFunc("GET /v1/collections", r.srv.handleCollectionList)
	r.mux.HandleFunc("DELETE /v1/collections/{id}", r.srv.handleCollectionDelete)

	r.mux.HandleFunc("POST /v1/data/create-owned", r.srv.handleUploadOwned)
	r.mux.HandleFunc("POST /v1/data/create-standard", r.srv.handleUploadStandard)
	r.mux.HandleFunc("POST /v1/data/update", r.srv.handleDataUpdate)
	r.mux.HandleFunc("POST /v1/data/delete", r.srv.handleDataDelete)
	r.mux.HandleFunc("POST /v1/data/flush", r.srv.handleDataFlush)
	r.mux.HandleFunc("POST /v1/data/tail", r.srv.handleDataTail)
	r.mux.HandleFunc("POST /v1/data/read", r.srv.handleDataRead)

	r.mux.HandleFunc("POST /v1/queries", r.srv.handleQueryCreate)
	r.mux.HandleFunc("GET /v1/queries", r.srv.handleQueryList)
	r.mux.HandleFunc("DELETE /v1/queries", r.srv.handleQueryDelete)
	r.mux.HandleFunc("POST /v1/queries/run", r.srv.handleQueryRun)
	r.mux.HandleFunc("POST /v1/queries/job", r.srv.handleQueryJob)
}
