// Package gateway guards the local MCP endpoint against DNS-rebinding and
// disguised browser traffic. Browsers attach Origin/Referer headers while
// legitimate non-browser agents usually omit them; the classifier judges each
// header in isolation so the guard policy can short-circuit on the first
// failure without blocking real agent clients.
package gateway

import (
	"net/url"
	"strings"
)

// browserTokens are engine fragments that only show up in browser
// user-agent strings. Substring match, case-insensitive.
var browserTokens = []string{
	"mozilla/",
	"chrome/",
	"safari/",
	"webkit/",
	"gecko/",
	"firefox/",
	"edge/",
	"opera/",
	"browser",
}

// isLoopbackHost reports whether hostname refers to the local machine
func isLoopbackHost(hostname string) bool {
	h := strings.ToLower(hostname)
	return h == "localhost" || h == "127.0.0.1"
}

// IsValidOrigin accepts only origins whose hostname is loopback.
// Malformed input is invalid, never an error.
func IsValidOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return isLoopbackHost(u.Hostname())
}

// IsValidReferer applies the same rule as IsValidOrigin
func IsValidReferer(referer string) bool {
	return IsValidOrigin(referer)
}

// IsBrowserRequest reports whether the user-agent string looks like it came
// from a browser engine
func IsBrowserRequest(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, token := range browserTokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}

// IsValidHost checks a Host header against the ports the bridge serves.
// The hostname must be loopback; a port segment, when present, must be
// non-empty and match one of expectedPorts exactly. A bare loopback host
// with no port is accepted.
func IsValidHost(host string, expectedPorts ...string) bool {
	hostname := host
	port := ""
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		hostname = host[:idx]
		port = host[idx+1:]
		// "localhost:" carries a port segment, just an empty one
		if port == "" {
			return false
		}
	}

	if !isLoopbackHost(hostname) {
		return false
	}
	if port == "" {
		return true
	}
	for _, expected := range expectedPorts {
		if port == expected {
			return true
		}
	}
	return false
}
