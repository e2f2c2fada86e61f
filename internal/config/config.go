package config

import (
	"encoding/json"
)

const (
	defaultListen = "127.0.0.1:9876"
)

// Config represents the main configuration structure
type Config struct {
	Listen  string `json:"listen" mapstructure:"listen"`
	DataDir string `json:"data_dir" mapstructure:"data-dir"`

	// Address the embedded proxy engine's API listens on. Its port joins
	// the MCP listener's port in the set a Host header may legitimately
	// name.
	APIListen string `json:"api_listen" mapstructure:"api-listen"`

	// Access control defaults applied when the settings store has no
	// persisted value yet
	Access *AccessConfig `json:"access,omitempty" mapstructure:"access"`

	// Logging configuration
	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`

	// When true, history and editor text bypass the redactor. Off by
	// default; secrets never leave the boundary unless asked for.
	IncludeSensitiveData bool `json:"include_sensitive_data" mapstructure:"include-sensitive-data"`

	// Liveness window in minutes for the session registry snapshot
	SessionWindowMinutes int `json:"session_window_minutes" mapstructure:"session-window-minutes"`
}

// AccessConfig holds the default approval flag pairs for the three sensitive
// data categories. Each pair is independent; the interactive tool flags must
// never be shared with the history flags.
type AccessConfig struct {
	HistoryApprovalRequired     bool `json:"history_approval_required" mapstructure:"history-approval-required"`
	HistoryAlwaysAllow          bool `json:"history_always_allow" mapstructure:"history-always-allow"`
	WebSocketApprovalRequired   bool `json:"websocket_approval_required" mapstructure:"websocket-approval-required"`
	WebSocketAlwaysAllow        bool `json:"websocket_always_allow" mapstructure:"websocket-always-allow"`
	InteractiveApprovalRequired bool `json:"interactive_approval_required" mapstructure:"interactive-approval-required"`
	InteractiveAlwaysAllow      bool `json:"interactive_always_allow" mapstructure:"interactive-always-allow"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable-file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable-console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log-dir"` // Custom log directory
	MaxSize       int    `json:"max_size" mapstructure:"max-size"`         // MB
	MaxBackups    int    `json:"max_backups" mapstructure:"max-backups"`   // number of backup files
	MaxAge        int    `json:"max_age" mapstructure:"max-age"`           // days
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json-format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Listen:  defaultListen,
		DataDir: "", // Will be set to ~/.proxybridge by loader

		// Approval required by default for every category; nothing is
		// remembered until the user picks Always Allow.
		Access: &AccessConfig{
			HistoryApprovalRequired:     true,
			WebSocketApprovalRequired:   true,
			InteractiveApprovalRequired: true,
		},

		Logging: &LogConfig{
			Level:         "info",
			EnableFile:    true,
			EnableConsole: true,
			Filename:      "main.log",
			MaxSize:       10, // 10MB
			MaxBackups:    5,  // 5 backup files
			MaxAge:        30, // 30 days
			Compress:      true,
			JSONFormat:    false, // Use console format for readability
		},

		IncludeSensitiveData: false,
		SessionWindowMinutes: 5,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.SessionWindowMinutes <= 0 {
		c.SessionWindowMinutes = 5
	}
	if c.Access == nil {
		c.Access = DefaultConfig().Access
	}
	if c.Logging == nil {
		c.Logging = DefaultConfig().Logging
	}
	return nil
}

// MarshalJSON implements json.Marshaler interface
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal((*Alias)(c))
}

// UnmarshalJSON implements json.Unmarshaler interface
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(c),
	}
	return json.Unmarshal(data, aux)
}
