package notify

import (
	"fmt"

	"github.com/rohmanhakim/offcache/pkg/failure"
)

type NotifyErrorCause string

const (
	ErrCausePayloadInvalid NotifyErrorCause = "payload invalid"
	ErrCauseDisplayFailed  NotifyErrorCause = "display failed"
)

type NotifyError struct {
	Message   string
	Retryable bool
	Cause     NotifyErrorCause
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify error: %s: %s", e.Cause, e.Message)
}

func (e *NotifyError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *NotifyError) IsRetryable() bool {
	return e.Retryable
}
