package domain

import (
	"net/url"
	"strings"
)

// NormalizeHost lowercases a hostname and strips a single leading "www."
// label.
func NormalizeHost(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

// HostnameOf extracts the normalized hostname from a raw URL. It returns
// "" for unparsable input or input without a host; callers treat that as
// "unknown" or no-match depending on context.
func HostnameOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return NormalizeHost(u.Hostname())
}
