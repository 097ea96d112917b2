package router

import (
	"net/url"
	"strings"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/pkg/urlutil"
)

// Predicate decides whether a rule applies to a request. Predicates must
// be pure: no state, no I/O, deterministic for a given request.
type Predicate func(request fetcher.Request) bool

func isNonGet(request fetcher.Request) bool {
	return !request.IsGet()
}

func isNavigation(request fetcher.Request) bool {
	return request.IsNavigation()
}

func matchAll(fetcher.Request) bool {
	return true
}

// crossOrigin returns a predicate that matches requests leaving the site's
// own origin. Root-relative URLs count as same-origin.
func crossOrigin(siteOrigin url.URL) Predicate {
	return func(request fetcher.Request) bool {
		return !urlutil.SameOrigin(request.URL(), siteOrigin)
	}
}

// allowlistedOrigin matches cross-origin requests whose origin is on the
// configured allowlist of font/CDN providers.
func allowlistedOrigin(siteOrigin url.URL, allowlist []string) Predicate {
	isCross := crossOrigin(siteOrigin)
	return func(request fetcher.Request) bool {
		if !isCross(request) {
			return false
		}
		return urlutil.MatchesOriginAllowlist(request.URL(), allowlist)
	}
}

// apiPath matches same-origin requests whose path signals a dynamic API
// endpoint.
func apiPath(prefixes []string) Predicate {
	return func(request fetcher.Request) bool {
		requestUrl := request.URL()
		for _, prefix := range prefixes {
			if prefix == "" {
				continue
			}
			if strings.HasPrefix(requestUrl.Path, prefix) {
				return true
			}
		}
		return false
	}
}
