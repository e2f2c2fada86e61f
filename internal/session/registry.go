// Package session tracks which agent clients are connected to the MCP
// endpoint. The registry is the only shared mutable structure touched by
// arbitrary concurrent connection handlers, so every mutation is a per-key
// compare-and-swap over immutable record values; there is no cross-key lock.
package session

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"proxybridge-go/internal/contracts"
)

// DefaultLivenessWindow is how long a session stays visible in snapshots
// after its last call
const DefaultLivenessWindow = 5 * time.Minute

// record is the stored per-token state. Records are treated as immutable:
// merges build a new record and swap it in, so readers never observe a
// half-updated entry.
type record struct {
	category      contracts.ClientCategory
	clientName    string
	clientVersion string
	detectedBy    string
	lastSeen      time.Time
}

// Registry is a concurrent map from session token to last-seen client
// metadata with time-windowed liveness
type Registry struct {
	sessions sync.Map // token -> *record
	window   time.Duration
	logger   *zap.Logger
}

// NewRegistry creates a session registry with the given liveness window.
// A zero window falls back to DefaultLivenessWindow.
func NewRegistry(window time.Duration, logger *zap.Logger) *Registry {
	if window <= 0 {
		window = DefaultLivenessWindow
	}
	return &Registry{
		window: window,
		logger: logger,
	}
}

// Upsert inserts or merges a session record. Resolved fields are kept;
// only unknown/absent fields are filled in. A known category is never
// downgraded back to unknown by a later ambiguous observation. last-seen
// always bumps to now.
func (r *Registry) Upsert(token string, category contracts.ClientCategory, name, version, detectedBy string, now time.Time) {
	for {
		prev, loaded := r.sessions.Load(token)
		if !loaded {
			fresh := &record{
				category:      normalizeCategory(category),
				clientName:    name,
				clientVersion: version,
				detectedBy:    normalizeDetectedBy(detectedBy),
				lastSeen:      now,
			}
			if actual, raced := r.sessions.LoadOrStore(token, fresh); raced {
				prev, loaded = actual, true
			} else {
				r.logger.Debug("session registered",
					zap.String("session_id", token),
					zap.String("category", string(fresh.category)),
					zap.String("client_name", name),
				)
				return
			}
		}

		old := prev.(*record)
		merged := old.merge(category, name, version, detectedBy, now)
		if r.sessions.CompareAndSwap(token, old, merged) {
			return
		}
		// Lost the race on this key; re-read and merge again.
	}
}

// Touch bumps last-seen for a token, creating a minimal unknown record if
// the token was never seen with an identity payload
func (r *Registry) Touch(token string, now time.Time) {
	r.Upsert(token, contracts.ClientUnknown, "", "", "", now)
}

// Snapshot evicts records outside the liveness window and returns copies of
// the rest, most recent first. System clients are hidden unless asked for.
func (r *Registry) Snapshot(now time.Time, includeSystem bool) []contracts.SessionSummary {
	cutoff := now.Add(-r.window)
	var out []contracts.SessionSummary

	r.sessions.Range(func(key, value interface{}) bool {
		token := key.(string)
		rec := value.(*record)

		if rec.lastSeen.Before(cutoff) {
			// Eviction only needs to win against an identical record;
			// a concurrent bump keeps the session alive.
			r.sessions.CompareAndDelete(token, rec)
			return true
		}

		if !includeSystem && rec.category == contracts.ClientSystem {
			return true
		}

		out = append(out, contracts.SessionSummary{
			SessionID:     token,
			Category:      rec.category,
			ClientName:    rec.clientName,
			ClientVersion: rec.clientVersion,
			DetectedBy:    rec.detectedBy,
			LastSeen:      rec.lastSeen,
		})
		return true
	})

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}

// Clear wipes all session state
func (r *Registry) Clear() {
	r.sessions.Range(func(key, _ interface{}) bool {
		r.sessions.Delete(key)
		return true
	})
}

// merge returns a new record with unknown fields filled from the
// observation and last-seen bumped
func (old *record) merge(category contracts.ClientCategory, name, version, detectedBy string, now time.Time) *record {
	merged := *old
	merged.lastSeen = now

	if merged.category == contracts.ClientUnknown && category != "" && category != contracts.ClientUnknown {
		merged.category = category
		if detectedBy != "" {
			merged.detectedBy = detectedBy
		}
	}
	if merged.clientName == "" && name != "" {
		merged.clientName = name
	}
	if merged.clientVersion == "" && version != "" {
		merged.clientVersion = version
	}
	if merged.detectedBy == "" || merged.detectedBy == contracts.DetectedByUnknown {
		if detectedBy != "" {
			merged.detectedBy = detectedBy
		}
	}
	return &merged
}

func normalizeCategory(category contracts.ClientCategory) contracts.ClientCategory {
	if category == "" {
		return contracts.ClientUnknown
	}
	return category
}

func normalizeDetectedBy(detectedBy string) string {
	if detectedBy == "" {
		return contracts.DetectedByUnknown
	}
	return detectedBy
}
