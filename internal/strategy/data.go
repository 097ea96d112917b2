package strategy

import (
	"net/http"
	"time"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/store"
)

const offlineBody = "Offline"

// SyntheticUnavailable is the last-resort response when every fallback is
// absent: a plain-text 503 instead of the host's native error.
func SyntheticUnavailable() fetcher.Response {
	return fetcher.NewResponse(
		http.StatusServiceUnavailable,
		map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		[]byte(offlineBody),
		fetcher.SourceSynthetic,
	)
}

func entryToResponse(entry store.Entry) fetcher.Response {
	return fetcher.NewResponse(
		entry.Code(),
		entry.Headers(),
		entry.Body(),
		fetcher.SourceCache,
	)
}

func responseToEntry(key string, request fetcher.Request, response fetcher.Response) store.Entry {
	requestUrl := request.URL()
	return store.NewEntry(
		key,
		requestUrl.String(),
		request.Method(),
		response.Code(),
		response.Headers(),
		response.Body(),
		time.Now().UTC(),
	)
}
