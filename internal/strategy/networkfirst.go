package strategy

import (
	"context"
	"time"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/internal/store"
	"github.com/rohmanhakim/offcache/pkg/failure"
)

// NetworkFirst favors freshness: the network is always tried first and the
// runtime store only answers when the network is unreachable. Navigations
// fall further, to the precached offline page and then the cached shell,
// before the synthetic 503.
type NetworkFirst struct {
	metadataSink metadata.MetadataSink
	runtimeStore store.Store
	runtimeName  string
	staticStore  store.Store
	offlineKey   string
	shellKey     string
	netFetcher   fetcher.Fetcher
}

func NewNetworkFirst(
	metadataSink metadata.MetadataSink,
	runtimeStore store.Store,
	runtimeName string,
	staticStore store.Store,
	offlineKey string,
	shellKey string,
	netFetcher fetcher.Fetcher,
) NetworkFirst {
	return NetworkFirst{
		metadataSink: metadataSink,
		runtimeStore: runtimeStore,
		runtimeName:  runtimeName,
		staticStore:  staticStore,
		offlineKey:   offlineKey,
		shellKey:     shellKey,
		netFetcher:   netFetcher,
	}
}

func (s *NetworkFirst) Name() string {
	return "network-first"
}

func (s *NetworkFirst) Serve(
	ctx context.Context,
	request fetcher.Request,
) (fetcher.Response, failure.ClassifiedError) {
	requestUrl := request.URL()
	key := store.EntryKey(request.Method(), requestUrl)

	response, fetchErr := s.netFetcher.Do(ctx, request)
	if fetchErr == nil {
		if response.Ok() && request.IsGet() {
			if putErr := s.runtimeStore.Put(ctx, key, responseToEntry(key, request, response)); putErr != nil {
				// Best-effort write-back: the response still goes out.
				s.recordStorageError("NetworkFirst.Serve", requestUrl.String(), putErr)
			}
		}
		return response, nil
	}

	// Network is down: climb the fallback chain.
	entry, found, matchErr := s.runtimeStore.Match(ctx, key)
	if matchErr != nil {
		s.recordStorageError("NetworkFirst.Serve", requestUrl.String(), matchErr)
	}
	s.metadataSink.RecordCacheLookup(s.runtimeName, requestUrl.String(), found)
	if found {
		s.metadataSink.RecordFallback(requestUrl.String(), metadata.FallbackRuntimeCache)
		return entryToResponse(entry), nil
	}

	if request.IsNavigation() {
		if fallback, ok := s.serveNavigationFallback(ctx, request); ok {
			return fallback, nil
		}
	}

	s.metadataSink.RecordFallback(requestUrl.String(), metadata.FallbackSynthetic)
	return SyntheticUnavailable(), nil
}

// serveNavigationFallback tries the offline page, then the cached shell
// document. Only navigations deserve a page-shaped answer.
func (s *NetworkFirst) serveNavigationFallback(ctx context.Context, request fetcher.Request) (fetcher.Response, bool) {
	requestUrl := request.URL()
	if s.staticStore == nil {
		return fetcher.Response{}, false
	}

	if s.offlineKey != "" {
		entry, found, err := s.staticStore.Match(ctx, s.offlineKey)
		if err != nil {
			s.recordStorageError("NetworkFirst.serveNavigationFallback", requestUrl.String(), err)
		}
		if found {
			s.metadataSink.RecordFallback(requestUrl.String(), metadata.FallbackOfflinePage)
			return entryToResponse(entry), true
		}
	}

	if s.shellKey != "" {
		entry, found, err := s.staticStore.Match(ctx, s.shellKey)
		if err != nil {
			s.recordStorageError("NetworkFirst.serveNavigationFallback", requestUrl.String(), err)
		}
		if found {
			s.metadataSink.RecordFallback(requestUrl.String(), metadata.FallbackShell)
			return entryToResponse(entry), true
		}
	}

	return fetcher.Response{}, false
}

func (s *NetworkFirst) recordStorageError(action string, fetchUrl string, err error) {
	s.metadataSink.RecordError(
		time.Now(),
		"strategy",
		action,
		metadata.CauseStorageFailure,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl),
			metadata.NewAttr(metadata.AttrStore, s.runtimeName),
		},
	)
}
