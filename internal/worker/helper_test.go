package worker_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/rohmanhakim/offcache/internal/config"
	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/internal/notify"
	"github.com/rohmanhakim/offcache/internal/store"
	"github.com/rohmanhakim/offcache/internal/worker"
	"github.com/rohmanhakim/offcache/pkg/failure"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://studio.example.com"

// routedFetcher is a test double for fetcher.Fetcher that returns
// per-URL canned responses or failures, with a default 200 for anything
// not configured.
type routedFetcher struct {
	calls     int
	requests  []fetcher.Request
	responses map[string]fetcher.Response
	failures  map[string]failure.ClassifiedError
}

func newRoutedFetcher() *routedFetcher {
	return &routedFetcher{
		responses: make(map[string]fetcher.Response),
		failures:  make(map[string]failure.ClassifiedError),
	}
}

func (f *routedFetcher) Do(_ context.Context, request fetcher.Request) (fetcher.Response, failure.ClassifiedError) {
	f.calls++
	f.requests = append(f.requests, request)
	requestUrl := request.URL()
	if err, ok := f.failures[requestUrl.String()]; ok {
		return fetcher.Response{}, err
	}
	if response, ok := f.responses[requestUrl.String()]; ok {
		return response, nil
	}
	return fetcher.NewResponse(
		http.StatusOK,
		map[string]string{"Content-Type": "text/html"},
		[]byte("ok"),
		fetcher.SourceNetwork,
	), nil
}

func (f *routedFetcher) respond(rawUrl string, status int, body string) {
	f.responses[rawUrl] = fetcher.NewResponse(
		status,
		map[string]string{"Content-Type": "text/html"},
		[]byte(body),
		fetcher.SourceNetwork,
	)
}

func (f *routedFetcher) fail(rawUrl string) {
	f.failures[rawUrl] = &fetcher.FetchError{
		Message:   "connection refused",
		Retryable: true,
		Cause:     fetcher.ErrCauseNetworkFailure,
	}
}

func testConfig(t *testing.T, version string) config.Config {
	t.Helper()
	origin, err := url.Parse(testOrigin)
	require.NoError(t, err)

	cfg, err := config.WithDefault(version, *origin, []string{"/", "/css/site.css"}).
		WithMaxAttempt(1).
		Build()
	require.NoError(t, err)
	return cfg
}

func newTestWorker(t *testing.T, version string, host store.Host, netFetcher fetcher.Fetcher) *worker.Worker {
	t.Helper()
	return worker.NewWorker(
		testConfig(t, version),
		host,
		netFetcher,
		&metadata.NoopSink{},
		notify.NewMemoryNotifier(),
	)
}

func installAndActivate(t *testing.T, w *worker.Worker) {
	t.Helper()
	require.Nil(t, w.Install(context.Background()))
	require.Nil(t, w.Activate(context.Background()))
	require.Equal(t, worker.StateActive, w.State())
}

func navRequest(t *testing.T, rawUrl string) fetcher.Request {
	t.Helper()
	parsed, err := url.Parse(rawUrl)
	require.NoError(t, err)
	return fetcher.NewRequest("GET", *parsed, nil, fetcher.ModeNavigate, nil)
}

func getRequest(t *testing.T, rawUrl string) fetcher.Request {
	t.Helper()
	parsed, err := url.Parse(rawUrl)
	require.NoError(t, err)
	return fetcher.NewRequest("GET", *parsed, nil, fetcher.ModeSubresource, nil)
}

func postRequest(t *testing.T, rawUrl string, body string) fetcher.Request {
	t.Helper()
	parsed, err := url.Parse(rawUrl)
	require.NoError(t, err)
	return fetcher.NewRequest("POST", *parsed, nil, fetcher.ModeSubresource, []byte(body))
}
