// Package traffic is the seam to the proxy/traffic-capture collaborator:
// read access to stored history and to the interactive request editor, plus
// the two engine toggles. The engine itself is out of scope; the server only
// sees these interfaces.
package traffic

import (
	"proxybridge-go/internal/contracts"
)

// HistoryStore is the read/write surface over captured traffic.
// storage.Manager satisfies it.
type HistoryStore interface {
	RecordProxyHistory(entry *contracts.ProxyHistoryEntry) error
	GetProxyHistory(count, offset int) ([]*contracts.ProxyHistoryEntry, error)
	RecordWebSocketMessage(msg *contracts.WebSocketMessage) error
	GetWebSocketHistory(count, offset int) ([]*contracts.WebSocketMessage, error)
}

// EditorBridge reads and writes the interactive request editor and flips
// engine state. The second return of the readers is false when no
// request/response could be located, a "couldn't find it" outcome callers
// must keep distinct from a security denial.
type EditorBridge interface {
	RequestText() (string, bool)
	ResponseText() (string, bool)
	SetRequestText(text string) error
	SetInterceptEnabled(enabled bool)
	SetTaskEngineEnabled(enabled bool)
}
