package session

import (
	"strings"

	"proxybridge-go/internal/contracts"
)

// fingerprintToken maps an identifier fragment to a client category.
// Order matters: first match wins.
type fingerprintToken struct {
	fragment string
	category contracts.ClientCategory
}

// Priority-ordered identifier fragments. "claude" before "codex" so a
// declared name like "claude-code (codex compat)" resolves to claude.
var fingerprintTokens = []fingerprintToken{
	{"claude", contracts.ClientClaude},
	{"codex", contracts.ClientCodex},
	{"gemini", contracts.ClientGemini},
	{"proxybridge", contracts.ClientSystem},
}

// Classify resolves a declared name or user-agent string to a client
// category. Blank input is unknown.
func Classify(candidate string) contracts.ClientCategory {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return contracts.ClientUnknown
	}
	for _, token := range fingerprintTokens {
		if strings.Contains(c, token.fragment) {
			return token.category
		}
	}
	return contracts.ClientUnknown
}

// Detect classifies a connecting agent from its handshake. The declared
// client name is authoritative; the user-agent is the fallback. Only the
// first initialize message of a session should be run through Detect;
// later calls rely on the registry entry it seeded.
func Detect(declaredName, userAgent string) (contracts.ClientCategory, string) {
	if category := Classify(declaredName); category != contracts.ClientUnknown {
		return category, contracts.DetectedByClientInfo
	}
	if category := Classify(userAgent); category != contracts.ClientUnknown {
		return category, contracts.DetectedByUserAgent
	}
	return contracts.ClientUnknown, contracts.DetectedByUnknown
}
