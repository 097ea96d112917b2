package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rohmanhakim/offcache/internal/config"
	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/gateway"
	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/internal/notify"
	"github.com/rohmanhakim/offcache/internal/store"
	"github.com/rohmanhakim/offcache/internal/worker"
	"github.com/rohmanhakim/offcache/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://studio.example.com"

type cannedFetcher struct {
	calls     int
	responses map[string]fetcher.Response
	failures  map[string]failure.ClassifiedError
}

func newCannedFetcher() *cannedFetcher {
	return &cannedFetcher{
		responses: make(map[string]fetcher.Response),
		failures:  make(map[string]failure.ClassifiedError),
	}
}

func (f *cannedFetcher) Do(_ context.Context, request fetcher.Request) (fetcher.Response, failure.ClassifiedError) {
	f.calls++
	requestUrl := request.URL()
	if err, ok := f.failures[requestUrl.String()]; ok {
		return fetcher.Response{}, err
	}
	if response, ok := f.responses[requestUrl.String()]; ok {
		return response, nil
	}
	return fetcher.NewResponse(http.StatusOK, nil, []byte("ok"), fetcher.SourceNetwork), nil
}

func (f *cannedFetcher) respond(rawUrl string, status int, body string) {
	f.responses[rawUrl] = fetcher.NewResponse(status, nil, []byte(body), fetcher.SourceNetwork)
}

func (f *cannedFetcher) fail(rawUrl string) {
	f.failures[rawUrl] = &fetcher.FetchError{
		Message:   "connection refused",
		Retryable: true,
		Cause:     fetcher.ErrCauseNetworkFailure,
	}
}

func siteOrigin(t *testing.T) url.URL {
	t.Helper()
	parsed, err := url.Parse(testOrigin)
	require.NoError(t, err)
	return *parsed
}

func activeGateway(t *testing.T, netFetcher *cannedFetcher) (*gateway.Gateway, *worker.Worker) {
	t.Helper()
	origin := siteOrigin(t)
	cfg, err := config.WithDefault("v1", origin, []string{"/", "/css/site.css"}).
		WithMaxAttempt(1).
		Build()
	require.NoError(t, err)

	w := worker.NewWorker(cfg, store.NewMemoryHost(), netFetcher, &metadata.NoopSink{}, notify.NewMemoryNotifier())
	require.Nil(t, w.Install(context.Background()))
	require.Nil(t, w.Activate(context.Background()))

	return gateway.NewGateway(w, origin, nil, nil), w
}

func TestServeHTTP_CachedAssetServedWithoutNetwork(t *testing.T) {
	netFetcher := newCannedFetcher()
	netFetcher.respond(testOrigin+"/css/site.css", http.StatusOK, "cached css")
	g, _ := activeGateway(t, netFetcher)
	callsAfterInstall := netFetcher.calls

	request := httptest.NewRequest(http.MethodGet, "/css/site.css", nil)
	recorder := httptest.NewRecorder()
	g.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "cached css", recorder.Body.String())
	assert.Equal(t, "cache", recorder.Header().Get("X-Offcache-Source"))
	assert.Equal(t, callsAfterInstall, netFetcher.calls)
}

func TestServeHTTP_NavigationFallsBackToOfflinePage(t *testing.T) {
	netFetcher := newCannedFetcher()
	netFetcher.respond(testOrigin+"/offline.html", http.StatusOK, "you are offline")
	g, _ := activeGateway(t, netFetcher)
	netFetcher.fail(testOrigin + "/portfolio/green-kitchen")

	request := httptest.NewRequest(http.MethodGet, "/portfolio/green-kitchen", nil)
	request.Header.Set("Accept", "text/html,application/xhtml+xml")
	recorder := httptest.NewRecorder()
	g.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "you are offline", recorder.Body.String())
}

func TestServeHTTP_SecFetchModeMarksNavigation(t *testing.T) {
	netFetcher := newCannedFetcher()
	netFetcher.respond(testOrigin+"/offline.html", http.StatusOK, "you are offline")
	g, _ := activeGateway(t, netFetcher)
	netFetcher.fail(testOrigin + "/portfolio")

	request := httptest.NewRequest(http.MethodGet, "/portfolio", nil)
	request.Header.Set("Sec-Fetch-Mode", "navigate")
	recorder := httptest.NewRecorder()
	g.ServeHTTP(recorder, request)

	assert.Equal(t, "you are offline", recorder.Body.String())
}

func TestServeHTTP_NonGetFailureBecomesBadGateway(t *testing.T) {
	netFetcher := newCannedFetcher()
	g, _ := activeGateway(t, netFetcher)
	netFetcher.fail(testOrigin + "/api/quote")

	request := httptest.NewRequest(http.MethodPost, "/api/quote", strings.NewReader(`{}`))
	recorder := httptest.NewRecorder()
	g.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestControlMessage_SkipWaiting(t *testing.T) {
	origin := siteOrigin(t)
	cfg, err := config.WithDefault("v1", origin, []string{"/"}).Build()
	require.NoError(t, err)
	w := worker.NewWorker(cfg, store.NewMemoryHost(), newCannedFetcher(), &metadata.NoopSink{}, notify.NewMemoryNotifier())
	require.Nil(t, w.Install(context.Background()))
	g := gateway.NewGateway(w, origin, nil, nil)

	request := httptest.NewRequest(http.MethodPost, "/offcache/message", strings.NewReader(`{"type":"SKIP_WAITING"}`))
	recorder := httptest.NewRecorder()
	g.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusAccepted, recorder.Code)
	assert.Equal(t, worker.StateActive, w.State())
}

func TestControlMessage_MalformedBody(t *testing.T) {
	g, _ := activeGateway(t, newCannedFetcher())

	request := httptest.NewRequest(http.MethodPost, "/offcache/message", strings.NewReader(`{broken`))
	recorder := httptest.NewRecorder()
	g.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestStatusEndpoint(t *testing.T) {
	g, w := activeGateway(t, newCannedFetcher())

	request := httptest.NewRequest(http.MethodGet, "/offcache/status", nil)
	recorder := httptest.NewRecorder()
	g.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	status := map[string]any{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
	assert.Equal(t, "active", status["state"])
	assert.Equal(t, w.Version(), status["version"])
}

func TestQueueAndSyncEndpoints(t *testing.T) {
	netFetcher := newCannedFetcher()
	g, w := activeGateway(t, netFetcher)

	queueBody := `{"method":"POST","url":"/api/quote","body":"{\"room\":\"study\"}","tag":"sync-quotes"}`
	queueReq := httptest.NewRequest(http.MethodPost, "/offcache/queue", strings.NewReader(queueBody))
	queueRec := httptest.NewRecorder()
	g.ServeHTTP(queueRec, queueReq)
	require.Equal(t, http.StatusAccepted, queueRec.Code)
	assert.Equal(t, 1, w.PendingSubmissions())

	syncReq := httptest.NewRequest(http.MethodPost, "/offcache/sync", strings.NewReader(`{"tag":"sync-quotes"}`))
	syncRec := httptest.NewRecorder()
	g.ServeHTTP(syncRec, syncReq)
	require.Equal(t, http.StatusOK, syncRec.Code)

	result := map[string]int{}
	require.NoError(t, json.Unmarshal(syncRec.Body.Bytes(), &result))
	assert.Equal(t, 1, result["replayed"])
	assert.Equal(t, 0, w.PendingSubmissions())
}

func TestPushEndpoint(t *testing.T) {
	g, _ := activeGateway(t, newCannedFetcher())

	valid := httptest.NewRequest(http.MethodPost, "/offcache/push", strings.NewReader(`{"title":"hi","body":"there","url":"/portfolio"}`))
	validRec := httptest.NewRecorder()
	g.ServeHTTP(validRec, valid)
	assert.Equal(t, http.StatusAccepted, validRec.Code)

	malformed := httptest.NewRequest(http.MethodPost, "/offcache/push", strings.NewReader(`{broken`))
	malformedRec := httptest.NewRecorder()
	g.ServeHTTP(malformedRec, malformed)
	assert.Equal(t, http.StatusBadRequest, malformedRec.Code)
}

func TestSwap_ReplacesServingWorker(t *testing.T) {
	netFetcher := newCannedFetcher()
	g, _ := activeGateway(t, netFetcher)

	origin := siteOrigin(t)
	cfg, err := config.WithDefault("v2", origin, []string{"/"}).Build()
	require.NoError(t, err)
	next := worker.NewWorker(cfg, store.NewMemoryHost(), netFetcher, &metadata.NoopSink{}, notify.NewMemoryNotifier())
	g.Swap(next)

	request := httptest.NewRequest(http.MethodGet, "/offcache/status", nil)
	recorder := httptest.NewRecorder()
	g.ServeHTTP(recorder, request)

	status := map[string]any{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
	assert.Equal(t, "v2", status["version"])
	assert.Equal(t, "uninstalled", status["state"])
}
