package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rohmanhakim/offcache/internal/metadata"
)

// PromSink is a metadata.MetadataSink that exports cache events as
// Prometheus metrics. Like every sink it is write-only: nothing in the
// worker reads these values back.
type PromSink struct {
	errorsTotal       *prometheus.CounterVec
	fetchesTotal      *prometheus.CounterVec
	fetchDuration     prometheus.Histogram
	cacheLookupsTotal *prometheus.CounterVec
	fallbacksTotal    *prometheus.CounterVec
	lifecycleDuration *prometheus.HistogramVec
}

func NewPromSink(registerer prometheus.Registerer) *PromSink {
	factory := promauto.With(registerer)
	return &PromSink{
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offcache",
			Name:      "errors_total",
			Help:      "Errors observed, labelled by package and cause.",
		}, []string{"package", "cause"}),
		fetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offcache",
			Name:      "fetches_total",
			Help:      "Network fetches, labelled by HTTP status.",
		}, []string{"status"}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "offcache",
			Name:      "fetch_duration_seconds",
			Help:      "Network fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offcache",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups, labelled by store and hit/miss.",
		}, []string{"store", "result"}),
		fallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offcache",
			Name:      "fallbacks_total",
			Help:      "Responses served from a fallback, labelled by kind.",
		}, []string{"kind"}),
		lifecycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "offcache",
			Name:      "lifecycle_duration_seconds",
			Help:      "Lifecycle phase durations, labelled by phase and version.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase", "version"}),
	}
}

func (s *PromSink) RecordError(
	_ time.Time,
	packageName string,
	_ string,
	cause metadata.ErrorCause,
	_ string,
	_ []metadata.Attribute,
) {
	s.errorsTotal.WithLabelValues(packageName, strconv.Itoa(int(cause))).Inc()
}

func (s *PromSink) RecordFetch(
	_ string,
	httpStatus int,
	duration time.Duration,
	_ int,
) {
	s.fetchesTotal.WithLabelValues(strconv.Itoa(httpStatus)).Inc()
	s.fetchDuration.Observe(duration.Seconds())
}

func (s *PromSink) RecordCacheLookup(storeName string, _ string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	s.cacheLookupsTotal.WithLabelValues(storeName, result).Inc()
}

func (s *PromSink) RecordFallback(_ string, kind metadata.FallbackKind) {
	s.fallbacksTotal.WithLabelValues(string(kind)).Inc()
}

func (s *PromSink) RecordLifecycle(phase metadata.LifecyclePhase, version string, duration time.Duration) {
	s.lifecycleDuration.WithLabelValues(string(phase), version).Observe(duration.Seconds())
}
