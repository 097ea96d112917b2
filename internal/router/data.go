package router

import (
	"net/url"

	"github.com/rohmanhakim/offcache/internal/strategy"
)

// Rule pairs a predicate with the strategy that serves matching requests.
// Rules are evaluated top-to-bottom; the first match wins.
type Rule struct {
	name      string
	matches   Predicate
	resolving strategy.Strategy
}

func NewRule(name string, matches Predicate, resolving strategy.Strategy) Rule {
	return Rule{
		name:      name,
		matches:   matches,
		resolving: resolving,
	}
}

func (r *Rule) Name() string {
	return r.name
}

// TableParam carries everything BuildTable needs to encode the routing
// precedence: the site's own origin, the allowlist of cacheable external
// origins, the API path prefixes, and one strategy per branch.
type TableParam struct {
	siteOrigin       url.URL
	runtimeAllowlist []string
	apiPathPrefixes  []string

	nonGet             strategy.Strategy
	crossOriginAllowed strategy.Strategy
	crossOriginOther   strategy.Strategy
	api                strategy.Strategy
	navigation         strategy.Strategy
	fallback           strategy.Strategy
}

func NewTableParam(
	siteOrigin url.URL,
	runtimeAllowlist []string,
	apiPathPrefixes []string,
	nonGet strategy.Strategy,
	crossOriginAllowed strategy.Strategy,
	crossOriginOther strategy.Strategy,
	api strategy.Strategy,
	navigation strategy.Strategy,
	fallback strategy.Strategy,
) TableParam {
	return TableParam{
		siteOrigin:         siteOrigin,
		runtimeAllowlist:   runtimeAllowlist,
		apiPathPrefixes:    apiPathPrefixes,
		nonGet:             nonGet,
		crossOriginAllowed: crossOriginAllowed,
		crossOriginOther:   crossOriginOther,
		api:                api,
		navigation:         navigation,
		fallback:           fallback,
	}
}
