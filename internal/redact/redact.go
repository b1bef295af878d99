// Package redact masks credentials embedded in URLs before text reaches a log.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// Marker replaces the userinfo portion of any URL that carries credentials.
const Marker = "***:***"

var uriPattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.\-]*://[^\s'"<>` + "`" + `]+`)

// Filter returns text with the userinfo of every embedded URI replaced by Marker.
// Substrings that look like URIs but fail to parse are left untouched.
func Filter(text string) string {
	if !strings.Contains(text, "://") {
		return text
	}

	for _, candidate := range uriPattern.FindAllString(text, -1) {
		masked, ok := maskUserinfo(candidate)
		if !ok || masked == candidate {
			continue
		}
		text = strings.ReplaceAll(text, candidate, masked)
	}

	return text
}

// Args joins a command line for display and filters it.
func Args(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	parts = append(parts, args...)
	return Filter(strings.Join(parts, " "))
}

func maskUserinfo(raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return "", false
	}

	// Rebuild by hand rather than via URL.String so the rest of the URI keeps
	// its original spelling and the replacement stays idempotent.
	schemeEnd := strings.Index(raw, "://")
	rest := raw[schemeEnd+3:]
	authorityEnd := strings.IndexAny(rest, "/?#")
	if authorityEnd < 0 {
		authorityEnd = len(rest)
	}
	at := strings.LastIndex(rest[:authorityEnd], "@")
	if at < 0 {
		return "", false
	}

	return raw[:schemeEnd+3] + Marker + rest[at:], true
}
