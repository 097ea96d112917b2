package store

import (
	"fmt"

	"github.com/rohmanhakim/offcache/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseStorageIO     StoreErrorCause = "storage io failure"
	ErrCauseStoreClosed   StoreErrorCause = "store closed"
	ErrCauseEncodeFailure StoreErrorCause = "entry encode failure"
	ErrCauseDecodeFailure StoreErrorCause = "entry decode failure"
)

type StoreError struct {
	Message   string
	Retryable bool
	Cause     StoreErrorCause
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s", e.Cause)
}

func (e *StoreError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *StoreError) IsRetryable() bool {
	return e.Retryable
}
