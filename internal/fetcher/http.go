package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/pkg/failure"
)

/*
Responsibilities

- Perform HTTP requests on behalf of cache strategies
- Apply headers and timeouts
- Surface transport failures as classified, retryable errors

Fetch Semantics

- Any HTTP status is returned as a Response; strategies own cacheability
- Transport failures (offline, DNS, reset, timeout) become FetchError
- The fetcher never touches the cache stores; it only returns bytes
  and metadata
*/

type HTTPFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
}

func NewHTTPFetcher(
	metadataSink metadata.MetadataSink,
	timeout time.Duration,
	userAgent string,
) HTTPFetcher {
	return HTTPFetcher{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    userAgent,
	}
}

func (h *HTTPFetcher) Do(
	ctx context.Context,
	request Request,
) (Response, failure.ClassifiedError) {
	callerMethod := "HTTPFetcher.Do"
	fetchUrl := request.URL()
	startTime := time.Now()

	result, err := h.performFetch(ctx, request)

	duration := time.Since(startTime)

	var statusCode int
	if err == nil {
		statusCode = result.Code()
	}
	h.metadataSink.RecordFetch(
		fetchUrl.String(),
		statusCode,
		duration,
		0,
	)

	if err != nil {
		h.recordFetchError(callerMethod, fetchUrl, err)
		return Response{}, err
	}

	return result, nil
}

func (h *HTTPFetcher) recordFetchError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(fetchError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			},
		)
	}
}

func (h *HTTPFetcher) performFetch(ctx context.Context, request Request) (Response, failure.ClassifiedError) {
	var bodyReader io.Reader
	if len(request.Body()) > 0 {
		bodyReader = bytes.NewReader(request.Body())
	}

	fetchUrl := request.URL()
	req, err := http.NewRequestWithContext(ctx, request.Method(), fetchUrl.String(), bodyReader)
	if err != nil {
		return Response{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseRequestInvalid,
		}
	}

	// Forward the original request headers, then apply our own identity.
	for key, value := range request.Headers() {
		req.Header.Set(key, value)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		cause := FetchErrorCause(ErrCauseNetworkFailure)
		if errors.Is(err, context.DeadlineExceeded) {
			cause = ErrCauseTimeout
		}
		// Network/transport errors are retryable
		return Response{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     cause,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}

	// Build response headers map
	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	return NewResponse(resp.StatusCode, responseHeaders, body, SourceNetwork), nil
}
