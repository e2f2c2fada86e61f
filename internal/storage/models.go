package storage

// Bucket names
const (
	MetaBucket         = "meta"
	SettingsBucket     = "settings"
	ProxyHistoryBucket = "proxy_history"
	WSHistoryBucket    = "ws_history"
)

// Meta keys
const (
	SchemaVersionKey     = "schema_version"
	CurrentSchemaVersion = uint64(1)
)

// Settings key prefixes for the approval flag pairs. The full key is
// prefix + category name, so every category's pair stays independent.
const (
	ApprovalRequiredPrefix = "approval_required:"
	AlwaysAllowPrefix      = "always_allow:"
)
