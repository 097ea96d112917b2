package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rohmanhakim/offcache/internal/config"
	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/internal/notify"
	"github.com/rohmanhakim/offcache/internal/outbox"
	"github.com/rohmanhakim/offcache/internal/router"
	"github.com/rohmanhakim/offcache/internal/strategy"
	"github.com/rohmanhakim/offcache/internal/store"
	"github.com/rohmanhakim/offcache/pkg/failure"
	"github.com/rohmanhakim/offcache/pkg/retry"
	"github.com/rohmanhakim/offcache/pkg/timeutil"
)

/*
 Worker is the sole lifecycle authority of one cache installation.

 Lifecycle and eviction guarantees:
 - The worker is the ONLY component allowed to create or delete stores.
   Strategies read and write entries, never whole stores.
 - Install is all-or-nothing: every precache asset must fetch with a
   success status before a single entry is written. A partial precache
   never becomes visible.
 - Eviction is version-driven and store-wide. Activation deletes every
   store whose name does not belong to the current version; no per-entry
   expiry exists.
 - Activation is idempotent. Repeating it observes the same final state
   and never fails on stores already deleted.
 - Fetches only flow through the routing table while the worker is
   active. In any other state the worker stays out of the way and the
   request goes straight to the network.

 Metadata emission is observational only and MUST NOT influence
 lifecycle transitions, routing, or fallback decisions.
*/

type Worker struct {
	mu           sync.RWMutex
	state        State
	cfg          config.Config
	host         store.Host
	staticStore  store.Store
	runtimeStore store.Store
	table        router.Table
	netFetcher   fetcher.Fetcher
	metadataSink metadata.MetadataSink
	submissions  *outbox.Outbox
	notifier     notify.Notifier
}

func NewWorker(
	cfg config.Config,
	host store.Host,
	netFetcher fetcher.Fetcher,
	metadataSink metadata.MetadataSink,
	notifier notify.Notifier,
) *Worker {
	return &Worker{
		state:        StateUninstalled,
		cfg:          cfg,
		host:         host,
		netFetcher:   netFetcher,
		metadataSink: metadataSink,
		submissions:  outbox.NewOutbox(metadataSink),
		notifier:     notifier,
	}
}

func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) Version() string {
	return w.cfg.Version()
}

// Install precaches every configured asset into the versioned static
// store. The whole batch is fetched before anything is written, so a
// single failing asset aborts the install without leaving a partial
// store behind.
func (w *Worker) Install(ctx context.Context) failure.ClassifiedError {
	w.mu.Lock()
	if w.state != StateUninstalled {
		current := w.state
		w.mu.Unlock()
		return &WorkerError{
			Message:   fmt.Sprintf("install from state %s", current),
			Retryable: false,
			Cause:     ErrCauseWrongState,
		}
	}
	w.state = StateInstalling
	w.mu.Unlock()

	startedAt := time.Now()

	entries, fetchErr := w.fetchPrecacheBatch(ctx)
	if fetchErr != nil {
		w.setState(StateUninstalled)
		return fetchErr
	}

	staticName := w.cfg.StaticStoreName()
	staticStore, openErr := w.host.Open(ctx, staticName)
	if openErr != nil {
		w.setState(StateUninstalled)
		return w.storageFailure("Worker.Install", openErr)
	}

	for _, precached := range entries {
		if putErr := staticStore.Put(ctx, precached.Key(), precached); putErr != nil {
			// Roll the half-written store back so the failed install
			// leaves no trace.
			w.host.Delete(ctx, staticName)
			w.setState(StateUninstalled)
			return w.storageFailure("Worker.Install", putErr)
		}
	}

	w.mu.Lock()
	w.staticStore = staticStore
	w.state = StateInstalled
	w.mu.Unlock()

	w.metadataSink.RecordLifecycle(metadata.PhaseInstall, w.cfg.Version(), time.Since(startedAt))
	return nil
}

// fetchPrecacheBatch resolves and fetches every precache path. Any
// transport error or non-success status fails the whole batch.
func (w *Worker) fetchPrecacheBatch(ctx context.Context) ([]store.Entry, failure.ClassifiedError) {
	var entries []store.Entry
	for _, path := range w.precachePaths() {
		assetUrl := w.cfg.ResolvePath(path)
		request := fetcher.NewRequest("GET", assetUrl, nil, fetcher.ModeSubresource, nil)

		fetchedAt := time.Now()
		response, err := w.netFetcher.Do(ctx, request)
		if err != nil {
			w.recordPrecacheFailure(assetUrl, err.Error())
			return nil, &WorkerError{
				Message:   fmt.Sprintf("%s: %s", assetUrl.String(), err.Error()),
				Retryable: true,
				Cause:     ErrCausePrecacheFetch,
			}
		}
		w.metadataSink.RecordFetch(assetUrl.String(), response.Code(), time.Since(fetchedAt), 0)
		if !response.Ok() {
			w.recordPrecacheFailure(assetUrl, fmt.Sprintf("status %d", response.Code()))
			return nil, &WorkerError{
				Message:   fmt.Sprintf("%s: status %d", assetUrl.String(), response.Code()),
				Retryable: false,
				Cause:     ErrCausePrecacheFetch,
			}
		}

		key := store.EntryKey("GET", assetUrl)
		entries = append(entries, store.NewEntry(
			key,
			assetUrl.String(),
			"GET",
			response.Code(),
			response.Headers(),
			response.Body(),
			time.Now().UTC(),
		))
	}
	return entries, nil
}

// precachePaths unions the configured asset list with the shell and
// offline pages, which the fallback chain depends on.
func (w *Worker) precachePaths() []string {
	paths := w.cfg.PrecachePaths()
	listed := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		listed[path] = struct{}{}
	}
	for _, required := range []string{w.cfg.ShellPath(), w.cfg.OfflinePath()} {
		if _, ok := listed[required]; !ok {
			listed[required] = struct{}{}
			paths = append(paths, required)
		}
	}
	return paths
}

// Activate promotes an installed worker: old-version stores are deleted,
// the routing table is built, and fetches start flowing through it.
// Activating an already-active worker is a no-op.
func (w *Worker) Activate(ctx context.Context) failure.ClassifiedError {
	w.mu.Lock()
	if w.state == StateActive {
		w.mu.Unlock()
		return nil
	}
	if w.state != StateInstalled {
		current := w.state
		w.mu.Unlock()
		return &WorkerError{
			Message:   fmt.Sprintf("activate from state %s", current),
			Retryable: false,
			Cause:     ErrCauseWrongState,
		}
	}
	w.state = StateActivating
	w.mu.Unlock()

	startedAt := time.Now()

	runtimeStore, openErr := w.host.Open(ctx, w.cfg.RuntimeStoreName())
	if openErr != nil {
		w.setState(StateInstalled)
		return w.storageFailure("Worker.Activate", openErr)
	}

	if err := w.evictOldVersions(ctx); err != nil {
		w.setState(StateInstalled)
		return err
	}

	w.mu.Lock()
	w.runtimeStore = runtimeStore
	w.table = w.buildTable(w.staticStore, runtimeStore)
	w.state = StateActive
	w.mu.Unlock()

	w.metadataSink.RecordLifecycle(metadata.PhaseActivate, w.cfg.Version(), time.Since(startedAt))
	w.metadataSink.RecordLifecycle(metadata.PhaseClaim, w.cfg.Version(), 0)
	return nil
}

// evictOldVersions deletes every store that does not belong to the
// current version. Deleting an already-absent store is not an error so
// repeated activation converges on the same state.
func (w *Worker) evictOldVersions(ctx context.Context) failure.ClassifiedError {
	names, err := w.host.Names(ctx)
	if err != nil {
		return w.storageFailure("Worker.evictOldVersions", err)
	}

	keep := map[string]struct{}{
		w.cfg.StaticStoreName():  {},
		w.cfg.RuntimeStoreName(): {},
	}
	for _, name := range names {
		if _, current := keep[name]; current {
			continue
		}
		if _, err := w.host.Delete(ctx, name); err != nil {
			return w.storageFailure("Worker.evictOldVersions", err)
		}
	}
	return nil
}

// buildTable wires one strategy per routing branch. Passthrough serves
// both the non-GET branch and non-allowlisted cross-origin traffic.
func (w *Worker) buildTable(staticStore store.Store, runtimeStore store.Store) router.Table {
	offlineKey := store.EntryKey("GET", w.cfg.ResolvePath(w.cfg.OfflinePath()))
	shellKey := store.EntryKey("GET", w.cfg.ResolvePath(w.cfg.ShellPath()))

	passthrough := strategy.NewPassthrough(w.netFetcher)
	runtimeCacheFirst := strategy.NewCacheFirst(
		w.metadataSink,
		runtimeStore,
		w.cfg.RuntimeStoreName(),
		staticStore,
		offlineKey,
		w.netFetcher,
	)
	staticCacheFirst := strategy.NewCacheFirst(
		w.metadataSink,
		staticStore,
		w.cfg.StaticStoreName(),
		staticStore,
		offlineKey,
		w.netFetcher,
	)
	networkFirst := strategy.NewNetworkFirst(
		w.metadataSink,
		runtimeStore,
		w.cfg.RuntimeStoreName(),
		staticStore,
		offlineKey,
		shellKey,
		w.netFetcher,
	)

	return router.BuildTable(router.NewTableParam(
		w.cfg.SiteOrigin(),
		w.cfg.RuntimeAllowlist(),
		w.cfg.APIPathPrefixes(),
		&passthrough,
		&runtimeCacheFirst,
		&passthrough,
		&networkFirst,
		&networkFirst,
		&staticCacheFirst,
	))
}

// HandleFetch serves one request. An active worker dispatches through
// the routing table; in every other state the request goes straight to
// the network untouched.
func (w *Worker) HandleFetch(
	ctx context.Context,
	request fetcher.Request,
) (fetcher.Response, failure.ClassifiedError) {
	w.mu.RLock()
	active := w.state == StateActive
	table := w.table
	w.mu.RUnlock()

	if !active {
		return w.netFetcher.Do(ctx, request)
	}
	return table.Dispatch(ctx, request)
}

// HandleMessage applies one control message. Unknown message types are
// ignored so newer clients can talk to older workers.
func (w *Worker) HandleMessage(ctx context.Context, message Message) failure.ClassifiedError {
	switch message.Kind() {
	case MessageSkipWaiting:
		return w.skipWaiting(ctx)
	case MessageClearCache:
		return w.clearCaches(ctx)
	case MessageCacheURLs:
		return w.cacheURLs(ctx, message.URLs())
	default:
		return nil
	}
}

// skipWaiting collapses the waiting period: an installed worker
// activates immediately. Any other state is a no-op.
func (w *Worker) skipWaiting(ctx context.Context) failure.ClassifiedError {
	if w.State() != StateInstalled {
		return nil
	}
	return w.Activate(ctx)
}

// clearCaches deletes every store the host knows about and drops the
// worker back to uninstalled. The next install starts from scratch.
func (w *Worker) clearCaches(ctx context.Context) failure.ClassifiedError {
	startedAt := time.Now()

	names, err := w.host.Names(ctx)
	if err != nil {
		return w.storageFailure("Worker.clearCaches", err)
	}
	for _, name := range names {
		if _, err := w.host.Delete(ctx, name); err != nil {
			return w.storageFailure("Worker.clearCaches", err)
		}
	}

	w.mu.Lock()
	w.staticStore = nil
	w.runtimeStore = nil
	w.table = router.Table{}
	w.state = StateUninstalled
	w.mu.Unlock()

	w.metadataSink.RecordLifecycle(metadata.PhaseClear, w.cfg.Version(), time.Since(startedAt))
	return nil
}

// cacheURLs fetches the given URLs on demand into the runtime store.
// Individual failures are recorded and skipped; the batch is best-effort,
// unlike the install precache.
func (w *Worker) cacheURLs(ctx context.Context, rawUrls []string) failure.ClassifiedError {
	w.mu.RLock()
	active := w.state == StateActive
	runtimeStore := w.runtimeStore
	w.mu.RUnlock()

	if !active {
		return &WorkerError{
			Message:   "CACHE_URLS requires an active worker",
			Retryable: true,
			Cause:     ErrCauseWrongState,
		}
	}

	for _, raw := range rawUrls {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
			// Relative URLs are allowed; resolve them against the site.
			if parseErr == nil && len(raw) > 0 && raw[0] == '/' {
				resolved := w.cfg.ResolvePath(raw)
				parsed = &resolved
			} else {
				w.metadataSink.RecordError(
					time.Now(),
					"worker",
					"Worker.cacheURLs",
					metadata.CausePayloadInvalid,
					fmt.Sprintf("unusable url %q", raw),
					nil,
				)
				continue
			}
		}

		request := fetcher.NewRequest("GET", *parsed, nil, fetcher.ModeSubresource, nil)
		fetchedAt := time.Now()
		response, fetchErr := w.netFetcher.Do(ctx, request)
		if fetchErr != nil {
			w.metadataSink.RecordError(
				time.Now(),
				"worker",
				"Worker.cacheURLs",
				metadata.CauseNetworkFailure,
				fetchErr.Error(),
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, parsed.String())},
			)
			continue
		}
		w.metadataSink.RecordFetch(parsed.String(), response.Code(), time.Since(fetchedAt), 0)
		if !response.Ok() {
			continue
		}

		key := store.EntryKey("GET", *parsed)
		entry := store.NewEntry(
			key,
			parsed.String(),
			"GET",
			response.Code(),
			response.Headers(),
			response.Body(),
			time.Now().UTC(),
		)
		if putErr := runtimeStore.Put(ctx, key, entry); putErr != nil {
			w.metadataSink.RecordError(
				time.Now(),
				"worker",
				"Worker.cacheURLs",
				metadata.CauseStorageFailure,
				putErr.Error(),
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, parsed.String())},
			)
		}
	}
	return nil
}

// QueueSubmission defers a request for replay on the next matching sync
// signal.
func (w *Worker) QueueSubmission(op outbox.Operation) error {
	return w.submissions.Enqueue(op)
}

// PendingSubmissions reports how many deferred submissions are queued.
func (w *Worker) PendingSubmissions() int {
	return w.submissions.Size()
}

// HandleSync replays the deferred submissions registered under the given
// tag. Submissions that still fail stay queued for the next signal.
func (w *Worker) HandleSync(ctx context.Context, tag string) outbox.DrainResult {
	return w.submissions.Drain(ctx, tag, w.netFetcher, w.retryParam())
}

func (w *Worker) retryParam() retry.RetryParam {
	return retry.NewRetryParam(
		w.cfg.BackoffInitialDuration(),
		w.cfg.Jitter(),
		w.cfg.RandomSeed(),
		w.cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			w.cfg.BackoffInitialDuration(),
			w.cfg.BackoffMultiplier(),
			w.cfg.BackoffMaxDuration(),
		),
	)
}

// HandlePush decodes a push payload and surfaces it through the
// notifier. A malformed payload is recorded and rejected; it never
// produces a broken notification.
func (w *Worker) HandlePush(ctx context.Context, payload []byte) failure.ClassifiedError {
	notification, parseErr := notify.ParsePushPayload(payload)
	if parseErr != nil {
		w.metadataSink.RecordError(
			time.Now(),
			"worker",
			"Worker.HandlePush",
			metadata.CausePayloadInvalid,
			parseErr.Error(),
			nil,
		)
		return &WorkerError{
			Message:   parseErr.Error(),
			Retryable: false,
			Cause:     ErrCauseInvalidPayload,
		}
	}

	if err := w.notifier.Show(ctx, notification); err != nil {
		return &WorkerError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseNotifyFailed,
		}
	}
	return nil
}

// HandleNotificationClick opens the client surface at the notification's
// target, resolved against the site origin when relative.
func (w *Worker) HandleNotificationClick(ctx context.Context, notification notify.Notification) failure.ClassifiedError {
	target := notification.TargetURL()
	if len(target) > 0 && target[0] == '/' {
		resolved := w.cfg.ResolvePath(target)
		target = resolved.String()
	}
	if err := w.notifier.OpenWindow(ctx, target); err != nil {
		return &WorkerError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseNotifyFailed,
		}
	}
	return nil
}

func (w *Worker) recordPrecacheFailure(assetUrl url.URL, details string) {
	w.metadataSink.RecordError(
		time.Now(),
		"worker",
		"Worker.Install",
		metadata.CausePrecacheFailure,
		details,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, assetUrl.String()),
			metadata.NewAttr(metadata.AttrVersion, w.cfg.Version()),
		},
	)
}

func (w *Worker) setState(state State) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

func (w *Worker) storageFailure(action string, err error) failure.ClassifiedError {
	w.metadataSink.RecordError(
		time.Now(),
		"worker",
		action,
		metadata.CauseStorageFailure,
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrVersion, w.cfg.Version())},
	)
	return &WorkerError{
		Message:   err.Error(),
		Retryable: true,
		Cause:     ErrCauseStorageFailure,
	}
}
