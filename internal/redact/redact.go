// Package redact scrubs credential-like values from raw HTTP text before it
// crosses the boundary to an agent client. Passes run in a fixed order and
// each operates on the output of the previous one; only secret values are
// replaced, never the surrounding syntax.
package redact

import (
	"regexp"
	"strings"
)

// Mask is the literal token substituted for every removed secret
const Mask = "<redacted>"

var (
	// Full-line headers whose values are always secrets
	headerPattern = regexp.MustCompile(`(?im)^(authorization|proxy-authorization|cookie|set-cookie|x-api-key|x-auth-token|x-csrf-token|x-session-id):[^\r\n]*`)

	// Bearer credentials wherever they appear
	bearerPattern = regexp.MustCompile(`(?i)\bBearer[ \t]+[A-Za-z0-9\-\._~\+\/]+=*`)

	// Sensitive parameter names. Longer alternatives come first so the
	// regex engine does not stop at a prefix ("session" vs "sessionid").
	paramNames = `token|sessionid|session|authorization|auth|api_key|api-key|access_token|refresh_token|jwt`

	queryParamPattern = regexp.MustCompile(`(?i)([?&](?:` + paramNames + `))=[^&\s]*`)
	formParamPattern  = regexp.MustCompile(`(?im)((?:^|&)(?:` + paramNames + `))=[^&\s]*`)

	// JSON string fields with the same name set plus cookie
	jsonFieldPattern = regexp.MustCompile(`(?i)("(?:` + paramNames + `|cookie)"\s*:\s*")[^"]*(")`)
)

// Pass names reported in Stats, in execution order
const (
	PassHeader = "header"
	PassBearer = "bearer"
	PassQuery  = "query_param"
	PassForm   = "form_param"
	PassJSON   = "json_field"
)

// Stats counts how many values each pass replaced
type Stats map[string]int

// Redact removes credential-like values from raw HTTP text. With
// includeSensitive true the input is returned unchanged.
func Redact(raw string, includeSensitive bool) string {
	out, _ := RedactWithStats(raw, includeSensitive)
	return out
}

// RedactWithStats is Redact plus a per-pass replacement count
func RedactWithStats(raw string, includeSensitive bool) (string, Stats) {
	stats := Stats{}
	if includeSensitive {
		return raw, stats
	}

	out := headerPattern.ReplaceAllStringFunc(raw, func(match string) string {
		stats[PassHeader]++
		idx := strings.IndexByte(match, ':')
		return match[:idx+1] + " " + Mask
	})

	out = bearerPattern.ReplaceAllStringFunc(out, func(match string) string {
		// Keep the scheme's original spelling, mask only the credential
		stats[PassBearer]++
		fields := strings.Fields(match)
		return fields[0] + " " + Mask
	})

	out = queryParamPattern.ReplaceAllStringFunc(out, func(match string) string {
		stats[PassQuery]++
		idx := strings.IndexByte(match, '=')
		return match[:idx+1] + Mask
	})
	out = formParamPattern.ReplaceAllStringFunc(out, func(match string) string {
		// The query pass already handled parameters reached through [?&]
		if strings.HasSuffix(match, "="+Mask) {
			return match
		}
		stats[PassForm]++
		idx := strings.IndexByte(match, '=')
		return match[:idx+1] + Mask
	})
	out = jsonFieldPattern.ReplaceAllStringFunc(out, func(match string) string {
		stats[PassJSON]++
		return jsonFieldPattern.ReplaceAllString(match, `${1}`+Mask+`${2}`)
	})

	return out, stats
}
