package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/pkg/failure"
	"github.com/rohmanhakim/offcache/pkg/retry"
)

/*
 Outbox holds submissions the worker could not deliver while offline.

 Ordering and replay guarantees:
 - Operations replay in FIFO order per drain pass.
 - Each operation is held under an idempotency key; enqueueing a
   duplicate key is rejected so a submission is never queued twice.
 - A drain pass only touches operations whose tag matches the sync
   signal; other tags stay queued untouched.
 - A failed replay re-enqueues the operation at the back of the queue.
   Transport failures and non-2xx endpoint answers both count as
   failures. Delivery is at-least-once; the consuming endpoint
   deduplicates by the idempotency key carried in the request headers.
*/

const idempotencyHeader = "X-Idempotency-Key"

type Outbox struct {
	mu           sync.Mutex
	pending      []Operation
	seen         map[string]struct{}
	metadataSink metadata.MetadataSink
}

func NewOutbox(metadataSink metadata.MetadataSink) *Outbox {
	return &Outbox{
		seen:         make(map[string]struct{}),
		metadataSink: metadataSink,
	}
}

// Enqueue queues an operation for later replay. A duplicate idempotency
// key is rejected.
func (o *Outbox) Enqueue(op Operation) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.seen[op.ID()]; exists {
		return &OutboxError{
			Message:   op.ID(),
			Retryable: false,
			Cause:     ErrCauseDuplicateOperation,
		}
	}
	o.seen[op.ID()] = struct{}{}
	o.pending = append(o.pending, op)
	return nil
}

func (o *Outbox) Size() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// PendingTags returns the distinct tags currently queued, oldest first.
func (o *Outbox) PendingTags() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var tags []string
	listed := make(map[string]struct{})
	for _, op := range o.pending {
		if _, ok := listed[op.tag]; ok {
			continue
		}
		listed[op.tag] = struct{}{}
		tags = append(tags, op.tag)
	}
	return tags
}

// Drain replays every queued operation whose tag matches, oldest first.
// Each replay runs under the retry policy; an operation that still fails
// after exhausting its attempts goes back to the end of the queue for the
// next sync signal.
func (o *Outbox) Drain(
	ctx context.Context,
	tag string,
	netFetcher fetcher.Fetcher,
	retryParam retry.RetryParam,
) DrainResult {
	batch := o.takeBatch(tag)

	result := DrainResult{}
	for _, op := range batch {
		if err := o.replay(ctx, op, netFetcher, retryParam); err != nil {
			o.metadataSink.RecordError(
				time.Now(),
				"outbox",
				"Outbox.Drain",
				metadata.CauseNetworkFailure,
				err.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrURL, op.targetUrl.String()),
					metadata.NewAttr(metadata.AttrSyncTag, tag),
				},
			)
			o.requeue(op)
			result.requeued++
			continue
		}
		o.forget(op)
		result.replayed++
	}
	return result
}

// takeBatch removes and returns the matching operations while holding the
// lock, so a concurrent Enqueue never lands inside the batch being
// drained.
func (o *Outbox) takeBatch(tag string) []Operation {
	o.mu.Lock()
	defer o.mu.Unlock()

	var batch []Operation
	var rest []Operation
	for _, op := range o.pending {
		if op.tag == tag {
			batch = append(batch, op)
		} else {
			rest = append(rest, op)
		}
	}
	o.pending = rest
	return batch
}

func (o *Outbox) replay(
	ctx context.Context,
	op Operation,
	netFetcher fetcher.Fetcher,
	retryParam retry.RetryParam,
) error {
	headers := make(map[string]string, len(op.headers)+1)
	for key, value := range op.headers {
		headers[key] = value
	}
	headers[idempotencyHeader] = op.id

	request := fetcher.NewRequest(op.method, op.targetUrl, headers, fetcher.ModeSubresource, op.body)

	startedAt := time.Now()
	attempts := 0
	response, err := retry.Retry(retryParam, func() (fetcher.Response, failure.ClassifiedError) {
		attempts++
		return netFetcher.Do(ctx, request)
	})
	if err != nil {
		return err
	}
	// Reaching the endpoint is not delivery; a non-2xx keeps the
	// operation queued for the next sync signal.
	if !response.Ok() {
		return &OutboxError{
			Message:   fmt.Sprintf("endpoint answered %d", response.Code()),
			Retryable: true,
			Cause:     ErrCauseReplayFailed,
		}
	}

	o.metadataSink.RecordFetch(
		op.targetUrl.String(),
		response.Code(),
		time.Since(startedAt),
		attempts-1,
	)
	return nil
}

func (o *Outbox) requeue(op Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, op)
}

func (o *Outbox) forget(op Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.seen, op.id)
}
