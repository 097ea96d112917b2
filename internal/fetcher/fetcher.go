package fetcher

import (
	"context"

	"github.com/rohmanhakim/offcache/pkg/failure"
)

// Fetcher is the network port strategies dispatch through. A non-2xx
// status is a result, not an error: strategies decide what is cacheable.
// Errors are reserved for transport-level failures (offline, DNS, timeout).
type Fetcher interface {
	Do(
		ctx context.Context,
		request Request,
	) (Response, failure.ClassifiedError)
}
