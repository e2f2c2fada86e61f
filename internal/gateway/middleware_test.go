package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"proxybridge-go/internal/observability"
)

func newTestGuard(ports ...string) *Guard {
	if len(ports) == 0 {
		ports = []string{"8080"}
	}
	return NewGuard(ports, zap.NewNop(), observability.NewMetrics())
}

func guardedRequestThrough(t *testing.T, guard *Guard, headers map[string]string, host string) *httptest.ResponseRecorder {
	t.Helper()

	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "http://127.0.0.1:8080/mcp", nil)
	if host != "" {
		req.Host = host
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func guardedRequest(t *testing.T, headers map[string]string, host string) *httptest.ResponseRecorder {
	t.Helper()
	return guardedRequestThrough(t, newTestGuard(), headers, host)
}

func TestGuardAllowsNonBrowserAgent(t *testing.T) {
	rec := guardedRequest(t, map[string]string{"User-Agent": "claude-code/1.0"}, "127.0.0.1:8080")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Hardening headers attach to allowed responses
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'none'", rec.Header().Get("Content-Security-Policy"))
}

func TestGuardRejectsInvalidOrigin(t *testing.T) {
	rec := guardedRequest(t, map[string]string{
		"Origin":     "http://evil.example.com",
		"User-Agent": "curl/8.0",
	}, "127.0.0.1:8080")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardAllowsLoopbackOrigin(t *testing.T) {
	rec := guardedRequest(t, map[string]string{
		"Origin": "http://localhost:8080",
		// A browser UA with a valid Origin is fine; CORS applies
		"User-Agent": "Mozilla/5.0 Chrome/120.0",
	}, "127.0.0.1:8080")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRejectsBrowserWithoutOrigin(t *testing.T) {
	rec := guardedRequest(t, map[string]string{
		"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	}, "127.0.0.1:8080")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardRejectsWrongHostPort(t *testing.T) {
	rec := guardedRequest(t, map[string]string{"User-Agent": "curl/8.0"}, "127.0.0.1:9999")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardAcceptsHostWithoutPort(t *testing.T) {
	rec := guardedRequest(t, map[string]string{"User-Agent": "curl/8.0"}, "127.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRejectsEmptyPortSegment(t *testing.T) {
	rec := guardedRequest(t, map[string]string{"User-Agent": "curl/8.0"}, "127.0.0.1:")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardAcceptsSecondaryPort(t *testing.T) {
	guard := newTestGuard("8080", "9090")

	rec := guardedRequestThrough(t, guard, map[string]string{"User-Agent": "curl/8.0"}, "127.0.0.1:9090")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = guardedRequestThrough(t, guard, map[string]string{"User-Agent": "curl/8.0"}, "127.0.0.1:7070")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardRejectsInvalidReferer(t *testing.T) {
	rec := guardedRequest(t, map[string]string{
		"User-Agent": "curl/8.0",
		"Referer":    "http://attacker.example.com/page",
	}, "127.0.0.1:8080")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
