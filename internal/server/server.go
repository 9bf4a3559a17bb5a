// Package server serves a generated output tree over HTTP so classes and
// wiki pages can be browsed without access to the sink's backend.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/logger"
	"github.com/koustreak/dbgen/internal/sink"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server is a read-only viewer over a sink.Reader.
type Server struct {
	files  sink.Reader
	log    *logger.Logger
	router chi.Router
}

// New builds the router. A nil log discards output.
func New(files sink.Reader, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{files: files, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.health)
	r.Get("/api/files", s.listFiles)
	r.Get("/files/*", s.getFile)

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the handler in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Status: "success", Message: "ok"})
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	paths, err := s.files.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		filtered := paths[:0]
		for _, p := range paths {
			if strings.HasPrefix(p, prefix) {
				filtered = append(filtered, p)
			}
		}
		paths = filtered
	}
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Status: "success", Data: paths})
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	b, err := s.files.Read(r.Context(), p)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", sink.ContentType(p))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsInvalidInput(err):
		status = http.StatusBadRequest
	default:
		s.log.ErrorWith("request failed", err, nil)
	}
	writeJSON(w, status, APIResponse{Status: "error", Error: err.Error()})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Any("duration", time.Since(start).String()).
			Logger().
			Debug("request served")
	})
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
