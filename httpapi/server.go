// Package httpapi exposes the protocol's five HTTP routes, translating
// between JSON request/response bodies and the protocol package's
// handlers, and mapping protocol errors to the status codes §7 specifies.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/cors"

	"github.com/deeprnd/random-pedersen/log"
	"github.com/deeprnd/random-pedersen/peers"
	"github.com/deeprnd/random-pedersen/protocol"
)

// Server wires the protocol service and the peer directory to an
// http.Handler.
type Server struct {
	svc *protocol.Service
	dir *peers.Directory
	log *log.Logger
	mux *http.ServeMux
}

// NewServer builds the routed, CORS-wrapped http.Handler for this node.
func NewServer(svc *protocol.Service, dir *peers.Directory) *Server {
	s := &Server{
		svc: svc,
		dir: dir,
		log: log.Default().Module("httpapi"),
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /commit-random", s.handleCommit)
	s.mux.HandleFunc("POST /co-commit-random", s.handleCoCommit)
	s.mux.HandleFunc("POST /reveal-random", s.handleReveal)
	s.mux.HandleFunc("GET /nodes", s.handleNodes)
	s.mux.HandleFunc("GET /node/{node_id}", s.handleNode)
}

// Handler returns the fully wrapped handler: CORS, request logging, and
// panic recovery (opening over/underflow is a fatal, by-design panic, see
// pedersen.Opening) around the routed mux.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.recoverMiddleware(s.loggingMiddleware(s.mux)))
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.Commit(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCoCommit(w http.ResponseWriter, r *http.Request) {
	var req protocol.CommitmentForRandom
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: decode request: %v", protocol.ErrBadRequest, err))
		return
	}

	resp, err := s.svc.CoCommit(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req protocol.CommitmentForRandom
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: decode request: %v", protocol.ErrBadRequest, err))
		return
	}

	resp, err := s.svc.Reveal(req.CommitmentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dir.AllNodeURLs())
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("node_id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid node_id %q", protocol.ErrBadRequest, idStr))
		return
	}
	url, ok := s.dir.NodeURL(id)
	if !ok {
		s.writeError(w, protocol.ErrNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, url)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, protocol.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, protocol.ErrNotFound):
		status = http.StatusNotFound
	}
	s.log.Warn("request failed", "status", status, "error", err)
	http.Error(w, err.Error(), status)
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("handler panicked", "panic", rec, "path", r.URL.Path)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.statusCode)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code for
// access logging.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}
