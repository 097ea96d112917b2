package strategy

import (
	"context"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/pkg/failure"
)

/*
 Strategies own the response policy for a single request: where to look
 first, what to write back, and how far to fall before giving up.

 Semantics shared by all strategies:
 - Only successful (2xx) GET responses are ever written to a store.
 - Write-back is best-effort: a failed store write is recorded and the
   fetched response is still returned to the caller.
 - A transport failure is recovered locally through the strategy's
   fallback chain; it is never surfaced to the caller as an error,
   except by Passthrough, which has no fallback by contract.
 - Within one Serve call steps are strictly sequential (lookup before
   fetch before write-back). No ordering is guaranteed across
   concurrent Serve calls.
*/

type Strategy interface {
	Name() string
	Serve(
		ctx context.Context,
		request fetcher.Request,
	) (fetcher.Response, failure.ClassifiedError)
}
