package strategy_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/store"
	"github.com/rohmanhakim/offcache/pkg/failure"
	"github.com/stretchr/testify/require"
)

// stubFetcher is a test double for fetcher.Fetcher that counts invocations
// and returns a canned response or error.
type stubFetcher struct {
	calls    int
	lastReq  fetcher.Request
	response fetcher.Response
	err      failure.ClassifiedError
}

func (f *stubFetcher) Do(_ context.Context, request fetcher.Request) (fetcher.Response, failure.ClassifiedError) {
	f.calls++
	f.lastReq = request
	if f.err != nil {
		return fetcher.Response{}, f.err
	}
	return f.response, nil
}

func okFetcher(body string) *stubFetcher {
	return &stubFetcher{
		response: fetcher.NewResponse(
			http.StatusOK,
			map[string]string{"Content-Type": "text/html"},
			[]byte(body),
			fetcher.SourceNetwork,
		),
	}
}

func failingFetcher() *stubFetcher {
	return &stubFetcher{
		err: &fetcher.FetchError{
			Message:   "connection refused",
			Retryable: true,
			Cause:     fetcher.ErrCauseNetworkFailure,
		},
	}
}

func statusFetcher(status int) *stubFetcher {
	return &stubFetcher{
		response: fetcher.NewResponse(status, nil, []byte("nope"), fetcher.SourceNetwork),
	}
}

func mustURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func getRequest(t *testing.T, raw string) fetcher.Request {
	t.Helper()
	return fetcher.NewRequest("GET", mustURL(t, raw), nil, fetcher.ModeSubresource, nil)
}

func navigationRequest(t *testing.T, raw string) fetcher.Request {
	t.Helper()
	return fetcher.NewRequest("GET", mustURL(t, raw), nil, fetcher.ModeNavigate, nil)
}

// seedEntry puts a canned GET entry for the URL into the store and returns
// its key.
func seedEntry(t *testing.T, s store.Store, raw string, body string) string {
	t.Helper()
	ctx := context.Background()
	u := mustURL(t, raw)
	key := store.EntryKey("GET", u)
	entry := store.NewEntry(key, raw, "GET", http.StatusOK,
		map[string]string{"Content-Type": "text/html"}, []byte(body), testTime())
	require.NoError(t, s.Put(ctx, key, entry))
	return key
}

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func openStore(t *testing.T, host store.Host, name string) store.Store {
	t.Helper()
	s, err := host.Open(context.Background(), name)
	require.NoError(t, err)
	return s
}
