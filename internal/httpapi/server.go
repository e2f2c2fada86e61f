// Package httpapi serves the local diagnostics API: active session
// listings, health, and metrics. It sits behind the same gateway guard as
// the MCP endpoint, so it is subject to the DNS-rebinding policy too.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"proxybridge-go/internal/contracts"
	"proxybridge-go/internal/observability"
	"proxybridge-go/internal/reqcontext"
	"proxybridge-go/internal/session"
)

// Server provides HTTP diagnostics endpoints with a chi router
type Server struct {
	registry *session.Registry
	logger   *zap.Logger
	metrics  *observability.Metrics
	router   *chi.Mux
}

// NewServer creates a new diagnostics API server
func NewServer(registry *session.Registry, metrics *observability.Metrics, logger *zap.Logger) *Server {
	s := &Server{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Router returns the underlying router for mounting
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.loggingMiddleware)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/sessions", s.handleSessions)
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := reqcontext.GetOrGenerateRequestID(r.Header.Get(reqcontext.RequestIDHeader))
		w.Header().Set(reqcontext.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(reqcontext.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("diagnostics API request",
			zap.String("request_id", reqcontext.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, contracts.APIResponse{
		Success: true,
		Data:    map[string]string{"status": "ok"},
	})
}

// handleSessions returns the live session snapshot. System clients are
// hidden unless include_system=true is passed.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	includeSystem, _ := strconv.ParseBool(r.URL.Query().Get("include_system"))

	summaries := s.registry.Snapshot(time.Now(), includeSystem)
	s.writeJSON(w, http.StatusOK, contracts.APIResponse{
		Success: true,
		Data:    summaries,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode API response", zap.Error(err))
	}
}
