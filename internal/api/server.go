package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/ebolton/keygate/internal/engine"
	"github.com/ebolton/keygate/internal/trace"
)

// Server serves the keygate control API over a Unix socket. The socket
// lives in the user's state directory with owner-only permissions; there
// is deliberately no endpoint that reads a secret or a PIN.
type Server struct {
	engine   *engine.Engine
	trace    *trace.Buffer
	listener net.Listener
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates a control server backed by the given engine.
func NewServer(e *engine.Engine, tr *trace.Buffer) *Server {
	s := &Server{
		engine: e,
		trace:  tr,
		logger: slog.With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/status", s.status)
	mux.HandleFunc("POST /v1/lock", s.lock)
	mux.HandleFunc("POST /v1/reload", s.reload)
	mux.HandleFunc("POST /v1/desktop/{n}", s.resetDesktop)
	mux.HandleFunc("GET /v1/trace", s.getTrace)
	mux.HandleFunc("GET /v1/health", s.health)

	s.server = &http.Server{Handler: mux}
	return s
}

// ListenUnix starts the server on a Unix socket.
func (s *Server) ListenUnix(path string) error {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("control API listening", "socket", path)
	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) lock(w http.ResponseWriter, r *http.Request) {
	s.engine.Lock()
	writeJSON(w, http.StatusOK, map[string]string{"gate": "locked"})
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reload(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Status())
}

// resetDesktop corrects the virtual desktop tracker after the user moved
// desktops with the mouse.
func (s *Server) resetDesktop(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "desktop must be a number"})
		return
	}
	if err := s.engine.ResetDesktop(n); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) getTrace(w http.ResponseWriter, r *http.Request) {
	n := 50
	if q := r.URL.Query().Get("n"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be a positive number"})
			return
		}
		n = parsed
	}
	records := s.trace.Last(n)
	if records == nil {
		records = []trace.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
