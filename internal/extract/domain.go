// Package extract recovers product fields from retailer pages through a
// cascade of heuristic tiers, with AI-assisted and URL-inference fallbacks.
package extract

import (
	"net/url"
	"strings"
)

// UnknownDomain is returned for URLs whose hostname cannot be resolved.
// Callers treat it as a valid, low-confidence domain rather than an error.
const UnknownDomain = "unknown"

// Domain returns the hostname of an absolute URL with a leading "www."
// stripped. Malformed or relative URLs yield UnknownDomain.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return UnknownDomain
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
