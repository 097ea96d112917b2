package strategy

import (
	"context"
	"time"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/internal/store"
	"github.com/rohmanhakim/offcache/pkg/failure"
)

// CacheFirst favors speed and offline availability: a cached entry is
// returned without a network round-trip, and the network is only consulted
// on a miss. Fresh successful responses are written back for next time.
type CacheFirst struct {
	metadataSink  metadata.MetadataSink
	cacheStore    store.Store
	storeName     string
	fallbackStore store.Store
	offlineKey    string
	netFetcher    fetcher.Fetcher
}

// NewCacheFirst builds the strategy. fallbackStore/offlineKey locate the
// precached offline page; fallbackStore may be the same store the strategy
// serves from.
func NewCacheFirst(
	metadataSink metadata.MetadataSink,
	cacheStore store.Store,
	storeName string,
	fallbackStore store.Store,
	offlineKey string,
	netFetcher fetcher.Fetcher,
) CacheFirst {
	return CacheFirst{
		metadataSink:  metadataSink,
		cacheStore:    cacheStore,
		storeName:     storeName,
		fallbackStore: fallbackStore,
		offlineKey:    offlineKey,
		netFetcher:    netFetcher,
	}
}

func (s *CacheFirst) Name() string {
	return "cache-first"
}

func (s *CacheFirst) Serve(
	ctx context.Context,
	request fetcher.Request,
) (fetcher.Response, failure.ClassifiedError) {
	requestUrl := request.URL()
	key := store.EntryKey(request.Method(), requestUrl)

	entry, found, matchErr := s.cacheStore.Match(ctx, key)
	if matchErr != nil {
		// A broken store read folds into a miss; the network path below
		// still has a chance to produce a response.
		s.recordStorageError("CacheFirst.Serve", requestUrl.String(), matchErr)
	}
	s.metadataSink.RecordCacheLookup(s.storeName, requestUrl.String(), found)
	if found {
		return entryToResponse(entry), nil
	}

	response, fetchErr := s.netFetcher.Do(ctx, request)
	if fetchErr == nil {
		if response.Ok() && request.IsGet() {
			if putErr := s.cacheStore.Put(ctx, key, responseToEntry(key, request, response)); putErr != nil {
				// Best-effort write-back: the response still goes out.
				s.recordStorageError("CacheFirst.Serve", requestUrl.String(), putErr)
			}
		}
		return response, nil
	}

	return s.serveOffline(ctx, request), nil
}

// serveOffline is the recovery chain for a dead network: the precached
// offline page, then the synthetic 503.
func (s *CacheFirst) serveOffline(ctx context.Context, request fetcher.Request) fetcher.Response {
	requestUrl := request.URL()
	if s.fallbackStore != nil && s.offlineKey != "" {
		entry, found, err := s.fallbackStore.Match(ctx, s.offlineKey)
		if err != nil {
			s.recordStorageError("CacheFirst.serveOffline", requestUrl.String(), err)
		}
		if found {
			s.metadataSink.RecordFallback(requestUrl.String(), metadata.FallbackOfflinePage)
			return entryToResponse(entry)
		}
	}
	s.metadataSink.RecordFallback(requestUrl.String(), metadata.FallbackSynthetic)
	return SyntheticUnavailable()
}

func (s *CacheFirst) recordStorageError(action string, fetchUrl string, err error) {
	s.metadataSink.RecordError(
		time.Now(),
		"strategy",
		action,
		metadata.CauseStorageFailure,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl),
			metadata.NewAttr(metadata.AttrStore, s.storeName),
		},
	)
}
