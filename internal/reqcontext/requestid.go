// Package reqcontext carries per-request identifiers through context so
// every log line of one inbound call correlates.
package reqcontext

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the HTTP header name for request IDs
	RequestIDHeader = "X-Request-Id"

	// MaxRequestIDLength is the maximum allowed length for a request ID
	MaxRequestIDLength = 256
)

type contextKey struct{}

// requestIDPattern validates request ID format: alphanumeric, dashes, underscores
var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,256}$`)

// IsValidRequestID checks if a request ID matches the allowed pattern
func IsValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	return requestIDPattern.MatchString(id)
}

// GenerateRequestID generates a new UUID v4 request ID
func GenerateRequestID() string {
	return uuid.New().String()
}

// GetOrGenerateRequestID returns the provided ID if valid, otherwise
// generates a new one
func GetOrGenerateRequestID(providedID string) string {
	if IsValidRequestID(providedID) {
		return providedID
	}
	return GenerateRequestID()
}

// WithRequestID stores a request ID on the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// RequestID returns the request ID stored on the context, empty if none
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
