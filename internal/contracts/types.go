// Package contracts defines typed data transfer objects shared between the
// MCP server, the diagnostics API, and the storage layer.
package contracts

import (
	"fmt"
	"time"
)

// APIResponse is the standard wrapper for all diagnostics API responses
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ClientCategory classifies the agent on the other end of an MCP session
type ClientCategory string

const (
	ClientClaude  ClientCategory = "claude"
	ClientCodex   ClientCategory = "codex"
	ClientGemini  ClientCategory = "gemini"
	ClientSystem  ClientCategory = "system"
	ClientUnknown ClientCategory = "unknown"
)

// Detection sources for a client category
const (
	DetectedByClientInfo = "clientInfo"
	DetectedByUserAgent  = "user-agent"
	DetectedByUnknown    = "unknown"
)

// SessionSummary is the diagnostics view of one active MCP session
type SessionSummary struct {
	SessionID     string         `json:"session_id"`
	Category      ClientCategory `json:"category"`
	ClientName    string         `json:"client_name,omitempty"`
	ClientVersion string         `json:"client_version,omitempty"`
	DetectedBy    string         `json:"detected_by"`
	LastSeen      time.Time      `json:"last_seen"`
}

// ProxyHistoryEntry is a single captured HTTP exchange
type ProxyHistoryEntry struct {
	ID       string    `json:"id"`
	Method   string    `json:"method"`
	URL      string    `json:"url"`
	Status   int       `json:"status,omitempty"`
	Request  string    `json:"request"`
	Response string    `json:"response,omitempty"`
	Captured time.Time `json:"captured"`
}

// WebSocketMessage is a single captured WebSocket frame
type WebSocketMessage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Direction string    `json:"direction"` // "client" or "server"
	Payload   string    `json:"payload"`
	Captured  time.Time `json:"captured"`
}

// Stable machine-readable error codes crossing the tool boundary
const (
	CodeAccessDenied    = "access_denied"
	CodeNotFound        = "not_found"
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal"
)

// ToolError is the structured error surfaced to MCP callers. No raw stack
// traces cross the boundary; Code is stable, Message is for humans.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewToolError builds a ToolError with a formatted message
func NewToolError(code, format string, args ...interface{}) *ToolError {
	return &ToolError{Code: code, Message: fmt.Sprintf(format, args...)}
}
