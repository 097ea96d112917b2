package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               = "timeout"
	ErrCauseNetworkFailure        = "network issues"
	ErrCauseReadResponseBodyError = "failed to read response body"
	ErrCauseRequestInvalid        = "request could not be constructed"
)

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout:
		return metadata.CauseNetworkFailure
	case ErrCauseNetworkFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseReadResponseBodyError:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
