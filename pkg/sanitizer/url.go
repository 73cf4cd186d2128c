package sanitizer

import (
	"net/url"
	"strings"
)

// NormalizeURL lowercases scheme and host of an absolute http(s) URL and
// returns "" for anything else.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)

	return u.String()
}
