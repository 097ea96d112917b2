package strategy

import (
	"context"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/pkg/failure"
)

// Passthrough hands the request straight to the network: no cache lookup,
// no write-back, no fallback. Non-GET requests and non-allowlisted
// cross-origin requests travel this path, so their failures surface to the
// caller untouched.
type Passthrough struct {
	netFetcher fetcher.Fetcher
}

func NewPassthrough(netFetcher fetcher.Fetcher) Passthrough {
	return Passthrough{
		netFetcher: netFetcher,
	}
}

func (s *Passthrough) Name() string {
	return "passthrough"
}

func (s *Passthrough) Serve(
	ctx context.Context,
	request fetcher.Request,
) (fetcher.Response, failure.ClassifiedError) {
	return s.netFetcher.Do(ctx, request)
}
