package metadata

import "time"

// FanoutSink forwards every event to each wrapped sink in order. Lets a
// deployment log through the Recorder and export metrics at the same
// time.
type FanoutSink struct {
	sinks []MetadataSink
}

func NewFanoutSink(sinks ...MetadataSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

func (f *FanoutSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	for _, sink := range f.sinks {
		sink.RecordError(observedAt, packageName, action, cause, errorString, attrs)
	}
}

func (f *FanoutSink) RecordFetch(fetchUrl string, httpStatus int, duration time.Duration, retryCount int) {
	for _, sink := range f.sinks {
		sink.RecordFetch(fetchUrl, httpStatus, duration, retryCount)
	}
}

func (f *FanoutSink) RecordCacheLookup(storeName string, fetchUrl string, hit bool) {
	for _, sink := range f.sinks {
		sink.RecordCacheLookup(storeName, fetchUrl, hit)
	}
}

func (f *FanoutSink) RecordFallback(fetchUrl string, kind FallbackKind) {
	for _, sink := range f.sinks {
		sink.RecordFallback(fetchUrl, kind)
	}
}

func (f *FanoutSink) RecordLifecycle(phase LifecyclePhase, version string, duration time.Duration) {
	for _, sink := range f.sinks {
		sink.RecordLifecycle(phase, version, duration)
	}
}
