package fetcher

import (
	"net/url"
)

// HTTP boundary

// RequestMode mirrors how the request reached the worker: a full-page
// navigation or a subresource load. The router treats navigations
// specially because content freshness matters more than speed for the
// shell document.
type RequestMode string

const (
	ModeNavigate    RequestMode = "navigate"
	ModeSubresource RequestMode = "subresource"
)

// Source records where a response's bytes came from.
type Source string

const (
	SourceNetwork   Source = "network"
	SourceCache     Source = "cache"
	SourceSynthetic Source = "synthetic"
)

type Request struct {
	method   string
	fetchUrl url.URL
	headers  map[string]string
	mode     RequestMode
	body     []byte
}

func NewRequest(
	method string,
	fetchUrl url.URL,
	headers map[string]string,
	mode RequestMode,
	body []byte,
) Request {
	return Request{
		method:   method,
		fetchUrl: fetchUrl,
		headers:  headers,
		mode:     mode,
		body:     body,
	}
}

func (r *Request) Method() string {
	return r.method
}

func (r *Request) URL() url.URL {
	return r.fetchUrl
}

func (r *Request) Headers() map[string]string {
	return r.headers
}

func (r *Request) Mode() RequestMode {
	return r.mode
}

func (r *Request) Body() []byte {
	return r.body
}

func (r *Request) IsGet() bool {
	return r.method == "GET"
}

func (r *Request) IsNavigation() bool {
	return r.mode == ModeNavigate
}

type Response struct {
	statusCode int
	headers    map[string]string
	body       []byte
	source     Source
}

func NewResponse(
	statusCode int,
	headers map[string]string,
	body []byte,
	source Source,
) Response {
	return Response{
		statusCode: statusCode,
		headers:    headers,
		body:       body,
		source:     source,
	}
}

func (r *Response) Code() int {
	return r.statusCode
}

func (r *Response) Headers() map[string]string {
	return r.headers
}

func (r *Response) Body() []byte {
	return r.body
}

func (r *Response) Source() Source {
	return r.source
}

// Ok reports whether the response carries a success status, the only kind
// eligible for cache write-back.
func (r *Response) Ok() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

func (r *Response) SizeByte() uint64 {
	return uint64(len(r.body))
}
