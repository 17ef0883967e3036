package domain

import (
	"net/url"
	"strings"
)

// ValidateURL reports whether candidate is an absolute http or https URL with a host.
// Surrounding whitespace is ignored. It never touches the network.
func ValidateURL(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Hostname() != ""
}
