package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "127.0.0.1:9876", cfg.Listen)
	assert.Equal(t, 5, cfg.SessionWindowMinutes)
	assert.False(t, cfg.IncludeSensitiveData)

	// Every category starts locked down, nothing pre-approved
	require.NotNil(t, cfg.Access)
	assert.True(t, cfg.Access.HistoryApprovalRequired)
	assert.True(t, cfg.Access.WebSocketApprovalRequired)
	assert.True(t, cfg.Access.InteractiveApprovalRequired)
	assert.False(t, cfg.Access.HistoryAlwaysAllow)
	assert.False(t, cfg.Access.WebSocketAlwaysAllow)
	assert.False(t, cfg.Access.InteractiveAlwaysAllow)

	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateFillsMissingFields(t *testing.T) {
	cfg := &Config{SessionWindowMinutes: -1}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:9876", cfg.Listen)
	assert.Equal(t, 5, cfg.SessionWindowMinutes)
	require.NotNil(t, cfg.Access)
	assert.True(t, cfg.Access.HistoryApprovalRequired)
	require.NotNil(t, cfg.Logging)
}

func TestValidateKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Listen:               "127.0.0.1:7000",
		SessionWindowMinutes: 10,
		Access:               &AccessConfig{HistoryApprovalRequired: false},
	}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:7000", cfg.Listen)
	assert.Equal(t, 10, cfg.SessionWindowMinutes)
	assert.False(t, cfg.Access.HistoryApprovalRequired)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	data := `{
		"listen": "127.0.0.1:7777",
		"data_dir": "` + filepath.ToSlash(filepath.Join(dir, "data")) + `",
		"include_sensitive_data": true,
		"access": {
			"history_approval_required": false,
			"interactive_approval_required": true
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7777", cfg.Listen)
	assert.True(t, cfg.IncludeSensitiveData)
	assert.False(t, cfg.Access.HistoryApprovalRequired)
	assert.True(t, cfg.Access.InteractiveApprovalRequired)

	// Data dir is created on load
	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadFromFileBadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
