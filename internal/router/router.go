package router

import (
	"context"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/pkg/failure"
)

/*
 The routing table makes strategy precedence a data structure instead of
 nested conditionals. Order, top to bottom:

 1. non-GET                     -> passthrough (never cached)
 2. cross-origin, allowlisted   -> cache-first against the runtime store
 3. cross-origin, anything else -> passthrough (not intercepted)
 4. same-origin API path        -> network-first
 5. navigation                  -> network-first (freshness over speed
                                   for the shell document)
 6. everything else (static)    -> cache-first against the static store

 The final rule matches unconditionally, so dispatch is total.
*/

type Table struct {
	rules []Rule
}

// BuildTable encodes the precedence above from the given parameters.
func BuildTable(param TableParam) Table {
	return Table{
		rules: []Rule{
			NewRule("non-get", isNonGet, param.nonGet),
			NewRule("cross-origin-allowlisted",
				allowlistedOrigin(param.siteOrigin, param.runtimeAllowlist),
				param.crossOriginAllowed),
			NewRule("cross-origin-other", crossOrigin(param.siteOrigin), param.crossOriginOther),
			NewRule("api", apiPath(param.apiPathPrefixes), param.api),
			NewRule("navigation", isNavigation, param.navigation),
			NewRule("static", matchAll, param.fallback),
		},
	}
}

// Route returns the first rule matching the request. The table always
// terminates with a catch-all, so a rule is always found.
func (t *Table) Route(request fetcher.Request) Rule {
	for _, rule := range t.rules {
		if rule.matches(request) {
			return rule
		}
	}
	// Unreachable with a well-formed table; BuildTable always appends the
	// catch-all static rule.
	return t.rules[len(t.rules)-1]
}

// Dispatch serves the request through the strategy of the first matching
// rule.
func (t *Table) Dispatch(
	ctx context.Context,
	request fetcher.Request,
) (fetcher.Response, failure.ClassifiedError) {
	rule := t.Route(request)
	return rule.resolving.Serve(ctx, request)
}
