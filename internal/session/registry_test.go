package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"proxybridge-go/internal/contracts"
)

func newTestRegistry() *Registry {
	return NewRegistry(5*time.Minute, zap.NewNop())
}

func TestUpsertFillsUnknownFields(t *testing.T) {
	r := newTestRegistry()
	t0 := time.Now()
	t1 := t0.Add(10 * time.Second)

	r.Upsert("s1", contracts.ClientUnknown, "agent", "", contracts.DetectedByUserAgent, t0)
	r.Upsert("s1", contracts.ClientCodex, "agent", "1.0", contracts.DetectedByClientInfo, t1)

	snapshot := r.Snapshot(t1, false)
	require.Len(t, snapshot, 1)

	rec := snapshot[0]
	assert.Equal(t, "s1", rec.SessionID)
	assert.Equal(t, contracts.ClientCodex, rec.Category)
	assert.Equal(t, "agent", rec.ClientName)
	assert.Equal(t, "1.0", rec.ClientVersion)
	assert.Equal(t, contracts.DetectedByClientInfo, rec.DetectedBy)
	assert.Equal(t, t1, rec.LastSeen)
}

func TestUpsertNeverDowngradesCategory(t *testing.T) {
	r := newTestRegistry()
	t0 := time.Now()

	r.Upsert("s1", contracts.ClientCodex, "agent", "1.0", contracts.DetectedByClientInfo, t0)
	// A later ambiguous observation must not reset the resolved category
	r.Upsert("s1", contracts.ClientUnknown, "", "", contracts.DetectedByUnknown, t0.Add(time.Second))

	snapshot := r.Snapshot(t0.Add(time.Second), false)
	require.Len(t, snapshot, 1)
	assert.Equal(t, contracts.ClientCodex, snapshot[0].Category)
	assert.Equal(t, contracts.DetectedByClientInfo, snapshot[0].DetectedBy)
	assert.Equal(t, "agent", snapshot[0].ClientName)
}

func TestTouchCreatesMinimalRecord(t *testing.T) {
	r := newTestRegistry()
	now := time.Now()

	r.Touch("s1", now)

	snapshot := r.Snapshot(now, false)
	require.Len(t, snapshot, 1)
	assert.Equal(t, contracts.ClientUnknown, snapshot[0].Category)
	assert.Equal(t, contracts.DetectedByUnknown, snapshot[0].DetectedBy)
	assert.Equal(t, now, snapshot[0].LastSeen)
}

func TestSnapshotEvictsStaleSessions(t *testing.T) {
	r := newTestRegistry()
	now := time.Now()

	r.Touch("stale", now.Add(-6*time.Minute))
	r.Touch("fresh", now.Add(-time.Minute))

	snapshot := r.Snapshot(now, false)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "fresh", snapshot[0].SessionID)

	// Eviction is permanent, not just filtered from this read
	snapshot = r.Snapshot(now, true)
	require.Len(t, snapshot, 1)
}

func TestSnapshotSortsMostRecentFirst(t *testing.T) {
	r := newTestRegistry()
	now := time.Now()

	r.Touch("older", now.Add(-2*time.Minute))
	r.Touch("newest", now)
	r.Touch("middle", now.Add(-time.Minute))

	snapshot := r.Snapshot(now, false)
	require.Len(t, snapshot, 3)
	assert.Equal(t, "newest", snapshot[0].SessionID)
	assert.Equal(t, "middle", snapshot[1].SessionID)
	assert.Equal(t, "older", snapshot[2].SessionID)
}

func TestSnapshotHidesSystemClientsByDefault(t *testing.T) {
	r := newTestRegistry()
	now := time.Now()

	r.Upsert("sys", contracts.ClientSystem, "proxybridge-internal", "", contracts.DetectedByClientInfo, now)
	r.Upsert("ext", contracts.ClientClaude, "claude-code", "", contracts.DetectedByClientInfo, now)

	snapshot := r.Snapshot(now, false)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "ext", snapshot[0].SessionID)

	snapshot = r.Snapshot(now, true)
	assert.Len(t, snapshot, 2)
}

func TestClear(t *testing.T) {
	r := newTestRegistry()
	now := time.Now()

	r.Touch("s1", now)
	r.Touch("s2", now)
	r.Clear()

	assert.Empty(t, r.Snapshot(now, true))
}

func TestConcurrentUpserts(t *testing.T) {
	r := newTestRegistry()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("s%d", i%10)
			r.Upsert(token, contracts.ClientClaude, "claude-code", "1.0", contracts.DetectedByClientInfo, now)
			r.Touch(token, now.Add(time.Duration(i)*time.Millisecond))
		}(i)
	}
	wg.Wait()

	snapshot := r.Snapshot(now.Add(time.Second), false)
	assert.Len(t, snapshot, 10)
	for _, rec := range snapshot {
		assert.Equal(t, contracts.ClientClaude, rec.Category)
	}
}
