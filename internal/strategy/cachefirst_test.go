package strategy_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/internal/store"
	"github.com/rohmanhakim/offcache/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFirst_HitServesWithoutNetwork(t *testing.T) {
	// Arrange
	ctx := context.Background()
	host := store.NewMemoryHost()
	static := openStore(t, host, "static-v1")
	seedEntry(t, static, "https://example.com/style.css", "cached css")
	netFetcher := okFetcher("fresh css")

	s := strategy.NewCacheFirst(&metadata.NoopSink{}, static, "static-v1", static, "", netFetcher)

	// Act
	resp, err := s.Serve(ctx, getRequest(t, "https://example.com/style.css"))

	// Assert - served from cache, network never consulted
	require.Nil(t, err)
	assert.Equal(t, "cached css", string(resp.Body()))
	assert.Equal(t, fetcher.SourceCache, resp.Source())
	assert.Equal(t, 0, netFetcher.calls, "network fetch must not be invoked on a cache hit")
}

func TestCacheFirst_MissFetchesAndWritesBack(t *testing.T) {
	ctx := context.Background()
	host := store.NewMemoryHost()
	static := openStore(t, host, "static-v1")
	netFetcher := okFetcher("fresh body")

	s := strategy.NewCacheFirst(&metadata.NoopSink{}, static, "static-v1", static, "", netFetcher)

	resp, err := s.Serve(ctx, getRequest(t, "https://example.com/app.js"))

	require.Nil(t, err)
	assert.Equal(t, 1, netFetcher.calls)
	assert.Equal(t, "fresh body", string(resp.Body()))
	assert.Equal(t, fetcher.SourceNetwork, resp.Source())

	// Write-back: a second request is a hit
	netFetcher.calls = 0
	again, err := s.Serve(ctx, getRequest(t, "https://example.com/app.js"))
	require.Nil(t, err)
	assert.Equal(t, 0, netFetcher.calls)
	assert.Equal(t, "fresh body", string(again.Body()))
	assert.Equal(t, fetcher.SourceCache, again.Source())
}

func TestCacheFirst_NonSuccessResponseIsNotCached(t *testing.T) {
	ctx := context.Background()
	host := store.NewMemoryHost()
	static := openStore(t, host, "static-v1")
	netFetcher := statusFetcher(http.StatusNotFound)

	s := strategy.NewCacheFirst(&metadata.NoopSink{}, static, "static-v1", static, "", netFetcher)

	resp, err := s.Serve(ctx, getRequest(t, "https://example.com/missing.css"))

	require.Nil(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Code())

	size, _ := static.Size(ctx)
	assert.Equal(t, 0, size, "a 404 must not be written back")
}

func TestCacheFirst_OfflineFallsBackToOfflinePage(t *testing.T) {
	ctx := context.Background()
	host := store.NewMemoryHost()
	static := openStore(t, host, "static-v1")
	offlineKey := seedEntry(t, static, "https://example.com/offline.html", "you are offline")

	s := strategy.NewCacheFirst(&metadata.NoopSink{}, static, "static-v1", static, offlineKey, failingFetcher())

	resp, err := s.Serve(ctx, getRequest(t, "https://example.com/uncached.css"))

	// Never an error: recovered locally
	require.Nil(t, err)
	assert.Equal(t, "you are offline", string(resp.Body()))
	assert.Equal(t, fetcher.SourceCache, resp.Source())
}

func TestCacheFirst_OfflineWithoutFallbackIsSynthetic503(t *testing.T) {
	ctx := context.Background()
	host := store.NewMemoryHost()
	static := openStore(t, host, "static-v1")

	s := strategy.NewCacheFirst(&metadata.NoopSink{}, static, "static-v1", static, "absent-key", failingFetcher())

	resp, err := s.Serve(ctx, getRequest(t, "https://example.com/uncached.css"))

	require.Nil(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code())
	assert.Equal(t, "Offline", string(resp.Body()))
	assert.Equal(t, fetcher.SourceSynthetic, resp.Source())
}
