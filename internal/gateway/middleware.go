package gateway

import (
	"net/http"

	"go.uber.org/zap"

	"proxybridge-go/internal/observability"
)

// Rejection reasons reported in logs and metrics
const (
	reasonBadOrigin     = "invalid_origin"
	reasonBrowserNoCORS = "browser_without_origin"
	reasonBadHost       = "invalid_host"
	reasonBadReferer    = "invalid_referer"
)

// Guard wraps an MCP endpoint handler with the DNS-rebinding policy.
// Checks run in order and the first failure wins; surviving requests get
// the baseline hardening headers before the handler runs.
type Guard struct {
	expectedPorts []string
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NewGuard creates a gateway guard. expectedPorts holds every local port
// the bridge answers on (the MCP listener, plus the proxy engine's API
// listener when configured); a Host header naming any other port is
// rejected.
func NewGuard(expectedPorts []string, logger *zap.Logger, metrics *observability.Metrics) *Guard {
	return &Guard{
		expectedPorts: expectedPorts,
		logger:        logger,
		metrics:       metrics,
	}
}

// Middleware returns the chi-compatible middleware function
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason, ok := g.check(r); !ok {
			g.reject(w, r, reason)
			return
		}

		hardenResponse(w)
		next.ServeHTTP(w, r)
	})
}

// check applies the ordered policy; returns the rejection reason on failure
func (g *Guard) check(r *http.Request) (string, bool) {
	origin := r.Header.Get("Origin")
	if origin != "" {
		if !IsValidOrigin(origin) {
			return reasonBadOrigin, false
		}
	} else if IsBrowserRequest(r.Header.Get("User-Agent")) {
		// A browser always sends Origin on cross-origin requests; a
		// browser user-agent without one means a non-CORS attack path.
		return reasonBrowserNoCORS, false
	}

	if host := r.Host; host != "" && !IsValidHost(host, g.expectedPorts...) {
		return reasonBadHost, false
	}

	if referer := r.Header.Get("Referer"); referer != "" && !IsValidReferer(referer) {
		return reasonBadReferer, false
	}

	return "", true
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, reason string) {
	g.logger.Warn("gateway rejected inbound request",
		zap.String("reason", reason),
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("origin", r.Header.Get("Origin")),
		zap.String("host", r.Host),
		zap.String("referer", r.Header.Get("Referer")),
		zap.String("user_agent", r.Header.Get("User-Agent")),
	)
	if g.metrics != nil {
		g.metrics.GatewayRejections.WithLabelValues(reason).Inc()
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// hardenResponse attaches baseline hardening headers to every allowed
// response from the boundary
func hardenResponse(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Content-Security-Policy", "default-src 'none'")
}
