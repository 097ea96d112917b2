package urlutil

import (
	"net/url"
	"strings"
)

// Canonicalize applies a deterministic normalization to a URL, producing
// the canonical form used for cache keys. It maps equivalent URL spellings
// to a single canonical representation.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Trailing slashes are removed (except for root "/")
//   - Fragments are removed (they never reach the network)
//   - Query parameters are preserved: two requests that differ only in
//     query string are distinct cache entries
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	// Lowercase scheme and host
	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	// Remove default port if present
	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	// Clean the path: remove trailing slashes (except root)
	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}

	// Remove fragment (anchor)
	canonical.Fragment = ""
	canonical.RawFragment = ""

	return canonical
}

// Origin returns the scheme://host origin of a URL, canonicalized.
// A URL without a host (a root-relative path) has an empty origin.
func Origin(sourceUrl url.URL) string {
	if sourceUrl.Host == "" {
		return ""
	}
	canonical := Canonicalize(sourceUrl)
	return canonical.Scheme + "://" + canonical.Host
}

// SameOrigin reports whether two URLs share scheme and host after
// canonicalization. A URL without a host is treated as relative to the
// other URL's origin, so it compares as same-origin.
func SameOrigin(a url.URL, b url.URL) bool {
	originA := Origin(a)
	originB := Origin(b)
	if originA == "" || originB == "" {
		return true
	}
	return originA == originB
}

// MatchesOriginAllowlist reports whether the URL's origin matches one of
// the given origin prefixes. Prefixes are compared case-insensitively
// against the canonical origin, so "https://fonts.gstatic.com" matches a
// request for any path on that host.
func MatchesOriginAllowlist(sourceUrl url.URL, allowlist []string) bool {
	origin := Origin(sourceUrl)
	if origin == "" {
		return false
	}
	for _, prefix := range allowlist {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(origin, lowerASCII(strings.TrimSuffix(prefix, "/"))) {
			return true
		}
	}
	return false
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
