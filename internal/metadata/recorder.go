package metadata

import (
	"log/slog"
	"time"
)

/*
Metadata Collected
- Lifecycle transitions (install, activate, claim, clear)
- Network fetch outcomes
- Cache lookups (hit/miss per store)
- Fallback selections

Determinism guarantees:
 - Metadata does not affect control flow
 - No component may read metadata to influence caching decisions

Metadata is write-only.
*/

// MetadataSink receives structured cache events. Implementations must not
// perform control-flow decisions on behalf of the caller.
type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		retryCount int,
	)

	RecordCacheLookup(storeName string, fetchUrl string, hit bool)

	RecordFallback(fetchUrl string, kind FallbackKind)

	RecordLifecycle(phase LifecyclePhase, version string, duration time.Duration)
}

/*
Recorder captures structured cache events through log/slog.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded synchronously in the order they are received
  by a single handler invocation.
- No global ordering across concurrent fetch events is guaranteed.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	workerId string
	logger   *slog.Logger
}

func NewRecorder(workerId string, logger *slog.Logger) Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return Recorder{
		workerId: workerId,
		logger:   logger.With(slog.String("worker", workerId)),
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	logAttrs := []any{
		slog.Time("observed_at", observedAt),
		slog.String("package", packageName),
		slog.String("action", action),
		slog.Int("cause", int(cause)),
		slog.String("error", errorString),
	}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.String(string(attr.Key), attr.Value))
	}
	r.logger.Error("cache error", logAttrs...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
) {
	r.logger.Debug("fetch",
		slog.String("url", fetchUrl),
		slog.Int("status", httpStatus),
		slog.Duration("duration", duration),
		slog.Int("retries", retryCount),
	)
}

func (r *Recorder) RecordCacheLookup(storeName string, fetchUrl string, hit bool) {
	r.logger.Debug("cache lookup",
		slog.String("store", storeName),
		slog.String("url", fetchUrl),
		slog.Bool("hit", hit),
	)
}

func (r *Recorder) RecordFallback(fetchUrl string, kind FallbackKind) {
	r.logger.Info("fallback served",
		slog.String("url", fetchUrl),
		slog.String("kind", string(kind)),
	)
}

func (r *Recorder) RecordLifecycle(phase LifecyclePhase, version string, duration time.Duration) {
	r.logger.Info("lifecycle",
		slog.String("phase", string(phase)),
		slog.String("version", version),
		slog.Duration("duration", duration),
	)
}

// NoopSink implements MetadataSink but does nothing.
// Callers (or tests) can decide whether to inject Recorder or NoopSink.
// Purpose is to make metadata orthogonal.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
) {
}

func (n *NoopSink) RecordCacheLookup(storeName string, fetchUrl string, hit bool) {}

func (n *NoopSink) RecordFallback(fetchUrl string, kind FallbackKind) {}

func (n *NoopSink) RecordLifecycle(phase LifecyclePhase, version string, duration time.Duration) {}
