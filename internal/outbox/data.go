package outbox

import (
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Operation is one deferred submission: a request captured while the
// network was down, waiting for a sync signal to replay it. The id is the
// idempotency key; enqueueing the same id twice is a no-op.
type Operation struct {
	id        string
	method    string
	targetUrl url.URL
	headers   map[string]string
	body      []byte
	tag       string
	queuedAt  time.Time
}

// NewOperation captures a deferred submission under a fresh idempotency
// key.
func NewOperation(
	method string,
	targetUrl url.URL,
	headers map[string]string,
	body []byte,
	tag string,
) Operation {
	return Operation{
		id:        uuid.NewString(),
		method:    method,
		targetUrl: targetUrl,
		headers:   headers,
		body:      body,
		tag:       tag,
		queuedAt:  time.Now().UTC(),
	}
}

func (o *Operation) ID() string {
	return o.id
}

func (o *Operation) Method() string {
	return o.method
}

func (o *Operation) URL() url.URL {
	return o.targetUrl
}

func (o *Operation) Headers() map[string]string {
	return o.headers
}

func (o *Operation) Body() []byte {
	return o.body
}

func (o *Operation) Tag() string {
	return o.tag
}

func (o *Operation) QueuedAt() time.Time {
	return o.queuedAt
}

// DrainResult aggregates the outcome of one drain pass.
type DrainResult struct {
	replayed int
	requeued int
}

func (r *DrainResult) Replayed() int {
	return r.replayed
}

func (r *DrainResult) Requeued() int {
	return r.requeued
}
