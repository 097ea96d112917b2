package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/internal/metrics"
)

func TestPromSink_CountsCacheLookups(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink := metrics.NewPromSink(registry)

	sink.RecordCacheLookup("static-v1", "https://studio.example.com/", true)
	sink.RecordCacheLookup("static-v1", "https://studio.example.com/x", false)
	sink.RecordCacheLookup("static-v1", "https://studio.example.com/", true)

	families, err := registry.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPromSink_CountsFetchesByStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink := metrics.NewPromSink(registry)

	sink.RecordFetch("https://studio.example.com/", 200, 12*time.Millisecond, 0)
	sink.RecordFetch("https://studio.example.com/missing", 404, 5*time.Millisecond, 0)
	sink.RecordFetch("https://studio.example.com/", 200, 8*time.Millisecond, 1)

	count, err := testutil.GatherAndCount(registry, "offcache_fetches_total")
	assert.NoError(t, err)
	// Two distinct status labels.
	assert.Equal(t, 2, count)
}

func TestPromSink_CountsFallbacks(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink := metrics.NewPromSink(registry)

	sink.RecordFallback("https://studio.example.com/portfolio", metadata.FallbackOfflinePage)
	sink.RecordFallback("https://studio.example.com/api", metadata.FallbackSynthetic)

	count, err := testutil.GatherAndCount(registry, "offcache_fallbacks_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPromSink_RecordsLifecycle(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink := metrics.NewPromSink(registry)

	sink.RecordLifecycle(metadata.PhaseInstall, "v1", 40*time.Millisecond)
	sink.RecordLifecycle(metadata.PhaseActivate, "v1", 3*time.Millisecond)

	count, err := testutil.GatherAndCount(registry, "offcache_lifecycle_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}
