// Package httpapi is the thin HTTP front-end spec.md §1 places outside the
// compiler core ("the HTTP/Bolt server front-ends... reachable only through
// defined interfaces"). It exposes the POST /query contract from spec.md §6
// and wires request context -> internal/compiler.Compile -> internal/emit.Substitute
// -> internal/executor.QueryExecutor, the same "handler owns the session,
// core owns the query" split the teacher's server/handler.go makes between
// a MySQL connection handler and the engine it drives.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/compiler"
	"github.com/clickgraph/cyphersql/internal/emit"
	"github.com/clickgraph/cyphersql/internal/executor"
	"github.com/clickgraph/cyphersql/internal/request"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// Server holds everything a running process needs to answer POST /query:
// the schema catalog (process-wide, immutable after load per spec.md §4.7),
// the shared Compiler (and its cache), and the QueryExecutor to run against
// once sql_only is false.
type Server struct {
	Catalog  *schema.Catalog
	Compiler *compiler.Compiler
	Exec     executor.QueryExecutor
	Log      *logrus.Entry
}

// Router builds the gorilla/mux router for this Server. cmd/graphqld is the
// only caller that turns this into a listening http.Server, keeping this
// package free of net/http.ListenAndServe concerns so it stays testable
// with httptest.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	return r
}

// queryResponse mirrors spec.md §6's two response shapes: either the
// decoded rows, or (sql_only) just the generated SQL.
type queryResponse struct {
	GeneratedSQL string         `json:"generated_sql,omitempty"`
	Rows         []executor.Row `json:"rows,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	log := s.Log
	if log != nil {
		log = log.WithField("request_id", reqID)
	}

	var reqCtx request.Context
	if err := json.NewDecoder(r.Body).Decode(&reqCtx); err != nil {
		writeError(w, log, http.StatusBadRequest, "ParseError", err.Error())
		return
	}

	gs, err := s.Catalog.Get(reqCtx.ResolvedSchemaName())
	if err != nil {
		writeError(w, log, http.StatusNotFound, "UnknownSchema", err.Error())
		return
	}

	tmpl, err := s.Compiler.Compile(reqCtx.Cypher, gs, nil, reqCtx.ViewParameterNames())
	if err != nil {
		writeError(w, log, http.StatusBadRequest, compileerr.Kind(err), err.Error())
		return
	}

	if reqCtx.SQLOnly {
		writeJSON(w, http.StatusOK, queryResponse{GeneratedSQL: tmpl.SQLTemplate, Warnings: tmpl.Warnings})
		return
	}

	sqlText, err := emit.Substitute(tmpl.SQLTemplate, reqCtx.Parameters, reqCtx.ViewParameters)
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "ParameterError", err.Error())
		return
	}

	if s.Exec == nil {
		writeError(w, log, http.StatusServiceUnavailable, "ExecutorUnavailable", "no query executor configured")
		return
	}

	rows, err := s.Exec.ExecuteOne(r.Context(), sqlText)
	if err != nil {
		writeError(w, log, http.StatusInternalServerError, "ExecError", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Rows: rows, Warnings: tmpl.Warnings})
}

func writeError(w http.ResponseWriter, log *logrus.Entry, status int, kind, message string) {
	if log != nil {
		log.WithField("kind", kind).Warn(message)
	}
	writeJSON(w, status, errorResponse{Kind: kind, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
