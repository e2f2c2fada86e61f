package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"proxybridge-go/internal/approval"
	"proxybridge-go/internal/config"
	"proxybridge-go/internal/gateway"
	"proxybridge-go/internal/httpapi"
	"proxybridge-go/internal/observability"
	"proxybridge-go/internal/session"
	"proxybridge-go/internal/storage"
	"proxybridge-go/internal/traffic"
)

const shutdownGracePeriod = 5 * time.Second

// lifecycleAction is one serialized start/stop command
type lifecycleAction struct {
	start bool
	ctx   context.Context
	done  chan error
}

// Server owns the boundary-facing HTTP listener and all state behind it.
// Start and stop requests go through a single-worker queue so they never
// run concurrently with each other; per-request handling is independent of
// lifecycle transitions.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	storage  traffic.HistoryStore
	registry *session.Registry
	approver *approval.Engine
	bridge   traffic.EditorBridge
	metrics  *observability.Metrics
	mcp      *BridgeServer

	lifecycle   chan lifecycleAction
	lifecycleMu sync.RWMutex
	closed      bool
	wg          sync.WaitGroup

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
}

// NewServer wires the full boundary stack
func NewServer(
	cfg *config.Config,
	storageManager *storage.Manager,
	bridge traffic.EditorBridge,
	prompter approval.Prompter,
	logger *zap.Logger,
) *Server {
	metrics := observability.NewMetrics()
	registry := session.NewRegistry(time.Duration(cfg.SessionWindowMinutes)*time.Minute, logger.Named("session"))
	approver := approval.NewEngine(storageManager, prompter, logger.Named("approval"), metrics)

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		storage:   storageManager,
		registry:  registry,
		approver:  approver,
		bridge:    bridge,
		metrics:   metrics,
		lifecycle: make(chan lifecycleAction),
	}
	s.mcp = NewBridgeServer(s, logger.Named("mcp"))

	s.wg.Add(1)
	go s.lifecycleWorker()

	return s
}

// Registry exposes the session registry for diagnostics consumers
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// StartServer starts the HTTP listener. Blocks until the listener is
// accepting or setup failed.
func (s *Server) StartServer(ctx context.Context) error {
	return s.submit(lifecycleAction{start: true, ctx: ctx, done: make(chan error, 1)})
}

// StopServer closes the listener with a bounded grace period and discards
// all in-memory session state
func (s *Server) StopServer() error {
	return s.submit(lifecycleAction{start: false, done: make(chan error, 1)})
}

// submit queues one lifecycle command. The send happens under the read lock
// so Shutdown cannot close the channel between the closed check and the
// send; the lock is released before waiting on the result, so the worker is
// never blocked by a waiting submitter.
func (s *Server) submit(action lifecycleAction) error {
	s.lifecycleMu.RLock()
	if s.closed {
		s.lifecycleMu.RUnlock()
		return fmt.Errorf("server is shut down")
	}
	s.lifecycle <- action
	s.lifecycleMu.RUnlock()
	return <-action.done
}

// Shutdown stops the server and the lifecycle worker. After Shutdown,
// StartServer and StopServer return an error instead of panicking.
func (s *Server) Shutdown() error {
	err := s.StopServer()

	s.lifecycleMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.lifecycle)
	}
	s.lifecycleMu.Unlock()

	s.wg.Wait()
	return err
}

// IsRunning reports whether the listener is up
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// lifecycleWorker executes start/stop commands one at a time, guaranteeing
// no partial-restart race
func (s *Server) lifecycleWorker() {
	defer s.wg.Done()
	for action := range s.lifecycle {
		if action.start {
			action.done <- s.doStart(action.ctx)
		} else {
			action.done <- s.doStop()
		}
	}
}

func (s *Server) doStart(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running on %s", s.cfg.Listen)
	}
	s.mu.Unlock()

	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}

	handler := s.buildHandler()
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 60 * time.Second,
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       180 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.logger.Info("MCP boundary server listening",
		zap.String("address", listener.Addr().String()),
		zap.Strings("endpoints", []string{"/mcp", "/healthz", "/metrics", "/api/v1/sessions"}),
	)

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return nil
}

func (s *Server) doStop() error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.running = false
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}

	s.logger.Info("stopping MCP boundary server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown timed out, forcing close", zap.Error(err))
		httpServer.Close()
	}

	// In-memory session state does not survive a stop
	s.registry.Clear()

	return nil
}

// buildHandler assembles the boundary handler chain: gateway guard first,
// then session tracking, then the MCP transport and diagnostics routes.
func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcp.MCPServer())
	mux.Handle("/mcp", streamable)
	mux.Handle("/mcp/", streamable)

	diagnostics := httpapi.NewServer(s.registry, s.metrics, s.logger.Named("httpapi"))
	mux.Handle("/", diagnostics.Router())

	guard := gateway.NewGuard(s.allowedPorts(), s.logger.Named("gateway"), s.metrics)
	return guard.Middleware(s.sessionTracking(mux))
}

// sessionTracking records passive client observations on every inbound
// call: last-seen bumps for known tokens and user-agent classification for
// tokens that never sent an identity payload.
func (s *Server) sessionTracking(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("sessionId")
		if token == "" {
			token = r.Header.Get("Mcp-Session-Id")
		}
		if token != "" {
			category, detectedBy := session.Detect("", r.Header.Get("User-Agent"))
			s.registry.Upsert(token, category, "", "", detectedBy, time.Now())
		}
		next.ServeHTTP(w, r)
	})
}

// allowedPorts lists every local port a valid Host header may name: the MCP
// listener's own port, plus the proxy engine's API port when configured.
func (s *Server) allowedPorts() []string {
	ports := []string{portOf(s.cfg.Listen)}
	if api := portOf(s.cfg.APIListen); api != "" && api != ports[0] {
		ports = append(ports, api)
	}
	return ports
}

func portOf(addr string) string {
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		return addr[idx+1:]
	}
	return ""
}
