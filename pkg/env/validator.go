package env

import (
	"net/url"
	"strings"
)

// IsValidEndpoint reports whether raw is an absolute URL with a host and one
// of the given schemes.
func IsValidEndpoint(raw string, schemes ...string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	for _, scheme := range schemes {
		if strings.EqualFold(u.Scheme, scheme) {
			return true
		}
	}
	return false
}
