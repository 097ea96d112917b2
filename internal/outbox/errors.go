package outbox

import (
	"fmt"

	"github.com/rohmanhakim/offcache/pkg/failure"
)

type OutboxErrorCause string

const (
	ErrCauseDuplicateOperation OutboxErrorCause = "duplicate operation"
	ErrCauseReplayFailed       OutboxErrorCause = "replay failed"
)

type OutboxError struct {
	Message   string
	Retryable bool
	Cause     OutboxErrorCause
}

func (e *OutboxError) Error() string {
	return fmt.Sprintf("outbox error: %s: %s", e.Cause, e.Message)
}

func (e *OutboxError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *OutboxError) IsRetryable() bool {
	return e.Retryable
}
