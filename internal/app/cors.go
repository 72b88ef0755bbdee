package app

import (
	"net/url"
	"strings"
)

// originAllowed reports whether an Origin header value matches any of the
// configured allowed_origins patterns. Patterns compare against the
// host[:port] part only; "*.example.com" matches any subdomain and
// "localhost:*" matches any port.
func originAllowed(patterns []string, origin string) bool {
	host := origin
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)

	for _, pattern := range patterns {
		if matchHostPattern(strings.ToLower(strings.TrimSpace(pattern)), host) {
			return true
		}
	}
	return false
}

func matchHostPattern(pattern, host string) bool {
	switch {
	case pattern == "":
		return false
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
