package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teemow/scheduler/internal/export"
	"github.com/teemow/scheduler/internal/logging"
)

// maxQueryBodyBytes bounds the request body of /query.
const maxQueryBodyBytes = 64 << 10

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	Export    bool   `json:"export,omitempty"`
}

// QueryResponse is the answer to POST /query.
type QueryResponse struct {
	Answer     string `json:"answer"`
	SessionID  string `json:"session_id"`
	ExportPath string `json:"export_path,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QueryHandler serves POST /query and DELETE /query for ending a session.
type QueryHandler struct {
	sessions *SessionManager
	exporter *export.Exporter
	logger   *slog.Logger
}

// NewQueryHandler returns the handler. exporter may be nil, in which case
// export requests are rejected.
func NewQueryHandler(sessions *SessionManager, exporter *export.Exporter, logger *slog.Logger) *QueryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryHandler{sessions: sessions, exporter: exporter, logger: logger}
}

// RegisterEndpoints registers /query on mux.
func (h *QueryHandler) RegisterEndpoints(mux *http.ServeMux) {
	mux.Handle("/query", h)
}

func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.query(w, r)
	case http.MethodDelete:
		h.endSession(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxQueryBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.Export && h.exporter == nil {
		writeError(w, http.StatusBadRequest, "export is not configured")
		return
	}

	orch, sessionID, err := h.sessions.Get(req.SessionID)
	if errors.Is(err, ErrInvalidSessionID) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to start session", logging.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	logger := logging.WithSession(h.logger, sessionID)
	answer, err := orch.Ask(r.Context(), req.Question)
	if err != nil {
		if r.Context().Err() != nil {
			logger.Info("client went away before the answer was ready")
			return
		}
		logger.Error("query failed", logging.Err(err))
		writeError(w, http.StatusBadGateway, "the assistant could not answer: "+err.Error())
		return
	}

	resp := QueryResponse{Answer: answer, SessionID: sessionID}
	if req.Export {
		path, err := h.exporter.Save(answer)
		if err != nil {
			logger.Error("export failed", logging.Err(err))
			writeError(w, http.StatusInternalServerError, "failed to export answer")
			return
		}
		resp.ExportPath = path
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *QueryHandler) endSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if !h.sessions.RemoveSession(sessionID) {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
