package storage

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"proxybridge-go/internal/approval"
	"proxybridge-go/internal/config"
	"proxybridge-go/internal/contracts"
)

// Manager provides a unified interface for storage operations. It also
// implements approval.FlagStore on top of the settings bucket, falling back
// to the configured defaults for keys never written.
type Manager struct {
	db       *BoltDB
	mu       sync.RWMutex
	logger   *zap.SugaredLogger
	defaults *config.AccessConfig
}

// NewManager creates a new storage manager
func NewManager(dataDir string, defaults *config.AccessConfig, logger *zap.SugaredLogger) (*Manager, error) {
	db, err := NewBoltDB(dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bolt database: %w", err)
	}

	if defaults == nil {
		defaults = config.DefaultConfig().Access
	}

	return &Manager{
		db:       db,
		logger:   logger,
		defaults: defaults,
	}, nil
}

// Close closes the storage manager
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Approval flag persistence (approval.FlagStore)

// ApprovalRequired returns the persisted approval-required flag for a
// category, or the configured default if never set
func (m *Manager) ApprovalRequired(category approval.Category) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, err := m.db.GetSetting(ApprovalRequiredPrefix + string(category))
	if err != nil {
		return false, err
	}
	if value == nil {
		return m.defaultRequired(category), nil
	}
	return string(value) == "true", nil
}

// AlwaysAllow returns the persisted always-allow flag for a category
func (m *Manager) AlwaysAllow(category approval.Category) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, err := m.db.GetSetting(AlwaysAllowPrefix + string(category))
	if err != nil {
		return false, err
	}
	if value == nil {
		return m.defaultAlwaysAllow(category), nil
	}
	return string(value) == "true", nil
}

// SetAlwaysAllow persists a category's always-allow flag
func (m *Manager) SetAlwaysAllow(category approval.Category, allow bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	value := "false"
	if allow {
		value = "true"
	}
	m.logger.Infow("persisting always-allow consent",
		"category", string(category),
		"allow", allow)
	return m.db.PutSetting(AlwaysAllowPrefix+string(category), []byte(value))
}

// SetApprovalRequired persists a category's approval-required toggle
func (m *Manager) SetApprovalRequired(category approval.Category, required bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	value := "false"
	if required {
		value = "true"
	}
	return m.db.PutSetting(ApprovalRequiredPrefix+string(category), []byte(value))
}

func (m *Manager) defaultRequired(category approval.Category) bool {
	switch category {
	case approval.CategoryTrafficHistory:
		return m.defaults.HistoryApprovalRequired
	case approval.CategoryWebSocketHistory:
		return m.defaults.WebSocketApprovalRequired
	case approval.CategoryInteractiveTool:
		return m.defaults.InteractiveApprovalRequired
	default:
		return true
	}
}

func (m *Manager) defaultAlwaysAllow(category approval.Category) bool {
	switch category {
	case approval.CategoryTrafficHistory:
		return m.defaults.HistoryAlwaysAllow
	case approval.CategoryWebSocketHistory:
		return m.defaults.WebSocketAlwaysAllow
	case approval.CategoryInteractiveTool:
		return m.defaults.InteractiveAlwaysAllow
	default:
		return false
	}
}

// History passthroughs

// RecordProxyHistory appends a captured HTTP exchange
func (m *Manager) RecordProxyHistory(entry *contracts.ProxyHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.AppendProxyHistory(entry)
}

// GetProxyHistory lists captured HTTP exchanges in capture order
func (m *Manager) GetProxyHistory(count, offset int) ([]*contracts.ProxyHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.ListProxyHistory(count, offset)
}

// RecordWebSocketMessage appends a captured WebSocket frame
func (m *Manager) RecordWebSocketMessage(msg *contracts.WebSocketMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.AppendWebSocketHistory(msg)
}

// GetWebSocketHistory lists captured WebSocket frames in capture order
func (m *Manager) GetWebSocketHistory(count, offset int) ([]*contracts.WebSocketMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.ListWebSocketHistory(count, offset)
}
