package worker

import (
	"fmt"

	"github.com/rohmanhakim/offcache/pkg/failure"
)

type WorkerErrorCause string

const (
	ErrCausePrecacheFetch  WorkerErrorCause = "precache fetch failed"
	ErrCausePrecacheWrite  WorkerErrorCause = "precache write failed"
	ErrCauseWrongState     WorkerErrorCause = "operation not valid in current state"
	ErrCauseStorageFailure WorkerErrorCause = "storage failure"
	ErrCauseInvalidPayload WorkerErrorCause = "invalid payload"
	ErrCauseNotifyFailed   WorkerErrorCause = "notification delivery failed"
)

type WorkerError struct {
	Message   string
	Retryable bool
	Cause     WorkerErrorCause
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker error: %s: %s", e.Cause, e.Message)
}

func (e *WorkerError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *WorkerError) IsRetryable() bool {
	return e.Retryable
}
