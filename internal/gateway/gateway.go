package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/outbox"
	"github.com/rohmanhakim/offcache/internal/worker"
)

/*
 Gateway plays the browser's role around one worker: it turns incoming
 HTTP traffic into worker fetch events, carries the control protocol, and
 writes worker responses back out.

 Responsibilities:
 - Bridge net/http requests to Worker.HandleFetch
 - Detect navigations from Sec-Fetch-Mode / Accept
 - Serve the control endpoints under /offcache/
 - Expose Prometheus metrics at /metrics
 - Swap the active worker when a new cache version installs

 The gateway never makes caching decisions; it only translates.
*/

const (
	messagePath = "/offcache/message"
	syncPath    = "/offcache/sync"
	pushPath    = "/offcache/push"
	queuePath   = "/offcache/queue"
	statusPath  = "/offcache/status"
	metricsPath = "/metrics"

	sourceHeader = "X-Offcache-Source"
)

type Gateway struct {
	mu             sync.RWMutex
	cacheWorker    *worker.Worker
	siteOrigin     url.URL
	logger         *slog.Logger
	metricsHandler http.Handler
}

func NewGateway(
	cacheWorker *worker.Worker,
	siteOrigin url.URL,
	logger *slog.Logger,
	metricsHandler http.Handler,
) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cacheWorker:    cacheWorker,
		siteOrigin:     siteOrigin,
		logger:         logger,
		metricsHandler: metricsHandler,
	}
}

// Swap replaces the worker serving traffic. Used when a new cache version
// finishes installing; in-flight requests keep the worker they started
// with.
func (g *Gateway) Swap(cacheWorker *worker.Worker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cacheWorker = cacheWorker
}

func (g *Gateway) current() *worker.Worker {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cacheWorker
}

func (g *Gateway) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	switch request.URL.Path {
	case messagePath:
		g.handleMessage(writer, request)
	case syncPath:
		g.handleSync(writer, request)
	case pushPath:
		g.handlePush(writer, request)
	case queuePath:
		g.handleQueue(writer, request)
	case statusPath:
		g.handleStatus(writer, request)
	case metricsPath:
		if g.metricsHandler == nil {
			http.NotFound(writer, request)
			return
		}
		g.metricsHandler.ServeHTTP(writer, request)
	default:
		g.handleFetch(writer, request)
	}
}

func (g *Gateway) handleMessage(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "POST only")
		return
	}
	dto := messageDTO{}
	if err := json.NewDecoder(request.Body).Decode(&dto); err != nil {
		writeError(writer, http.StatusBadRequest, "malformed message body")
		return
	}

	message := worker.NewMessage(worker.MessageType(dto.Type), dto.URLs)
	if err := g.current().HandleMessage(request.Context(), message); err != nil {
		g.logger.Warn("control message failed",
			slog.String("type", dto.Type),
			slog.String("error", err.Error()),
		)
		writeError(writer, http.StatusConflict, err.Error())
		return
	}
	writer.WriteHeader(http.StatusAccepted)
}

func (g *Gateway) handleSync(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "POST only")
		return
	}
	dto := syncDTO{}
	if err := json.NewDecoder(request.Body).Decode(&dto); err != nil || dto.Tag == "" {
		writeError(writer, http.StatusBadRequest, "sync body requires a tag")
		return
	}

	result := g.current().HandleSync(request.Context(), dto.Tag)
	writeJSON(writer, http.StatusOK, syncResultDTO{
		Replayed: result.Replayed(),
		Requeued: result.Requeued(),
	})
}

func (g *Gateway) handlePush(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "POST only")
		return
	}
	payload, err := io.ReadAll(request.Body)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "unreadable payload")
		return
	}
	if err := g.current().HandlePush(request.Context(), payload); err != nil {
		writeError(writer, http.StatusBadRequest, err.Error())
		return
	}
	writer.WriteHeader(http.StatusAccepted)
}

func (g *Gateway) handleQueue(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "POST only")
		return
	}
	dto := queueDTO{}
	if err := json.NewDecoder(request.Body).Decode(&dto); err != nil {
		writeError(writer, http.StatusBadRequest, "malformed queue body")
		return
	}
	if dto.Method == "" || dto.URL == "" || dto.Tag == "" {
		writeError(writer, http.StatusBadRequest, "queue body requires method, url and tag")
		return
	}
	targetUrl, err := g.resolveTarget(dto.URL)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "unusable url")
		return
	}

	op := outbox.NewOperation(dto.Method, targetUrl, dto.Headers, []byte(dto.Body), dto.Tag)
	if err := g.current().QueueSubmission(op); err != nil {
		writeError(writer, http.StatusConflict, err.Error())
		return
	}
	writer.WriteHeader(http.StatusAccepted)
}

func (g *Gateway) handleStatus(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writeError(writer, http.StatusMethodNotAllowed, "GET only")
		return
	}
	cacheWorker := g.current()
	writeJSON(writer, http.StatusOK, statusDTO{
		State:              cacheWorker.State().String(),
		Version:            cacheWorker.Version(),
		PendingSubmissions: cacheWorker.PendingSubmissions(),
	})
}

// handleFetch translates one incoming request into a worker fetch event
// and writes the worker's answer back.
func (g *Gateway) handleFetch(writer http.ResponseWriter, request *http.Request) {
	targetUrl, err := g.requestTarget(request)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "unusable request url")
		return
	}

	var body []byte
	if request.Body != nil {
		body, err = io.ReadAll(request.Body)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "unreadable request body")
			return
		}
	}

	headers := make(map[string]string, len(request.Header))
	for name := range request.Header {
		headers[name] = request.Header.Get(name)
	}

	fetchRequest := fetcher.NewRequest(
		request.Method,
		targetUrl,
		headers,
		requestMode(request),
		body,
	)

	response, fetchErr := g.current().HandleFetch(request.Context(), fetchRequest)
	if fetchErr != nil {
		g.logger.Warn("fetch failed",
			slog.String("url", targetUrl.String()),
			slog.String("error", fetchErr.Error()),
		)
		writeError(writer, http.StatusBadGateway, fetchErr.Error())
		return
	}

	for name, value := range response.Headers() {
		writer.Header().Set(name, value)
	}
	writer.Header().Set(sourceHeader, string(response.Source()))
	writer.WriteHeader(response.Code())
	writer.Write(response.Body())
}

// requestTarget rebuilds the absolute URL the client asked for. Proxy-form
// requests carry it whole; origin-form paths resolve against the site.
func (g *Gateway) requestTarget(request *http.Request) (url.URL, error) {
	if request.URL.IsAbs() {
		return *request.URL, nil
	}
	return g.resolveTarget(request.URL.RequestURI())
}

func (g *Gateway) resolveTarget(raw string) (url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, err
	}
	if parsed.IsAbs() {
		return *parsed, nil
	}
	resolved := g.siteOrigin.ResolveReference(parsed)
	return *resolved, nil
}

// requestMode classifies the request the way a browser would label it:
// the Sec-Fetch-Mode header when present, otherwise an HTML Accept header
// on a GET.
func requestMode(request *http.Request) fetcher.RequestMode {
	if request.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return fetcher.ModeNavigate
	}
	if request.Method == http.MethodGet &&
		strings.Contains(request.Header.Get("Accept"), "text/html") {
		return fetcher.ModeNavigate
	}
	return fetcher.ModeSubresource
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(payload)
}

func writeError(writer http.ResponseWriter, status int, message string) {
	writeJSON(writer, status, errorDTO{Error: message})
}
