package metadata

import (
	"sync"
	"time"
)

// MemorySink retains every event it receives, for inspection in tests.
type MemorySink struct {
	mu         sync.Mutex
	errors     []ErrorRecord
	fetches    []FetchEvent
	lookups    []LookupEvent
	fallbacks  []FallbackEvent
	lifecycles []LifecycleEvent
}

// FallbackEvent is one recorded fallback selection.
type FallbackEvent struct {
	FetchURL string
	Kind     FallbackKind
}

// LifecycleEvent is one recorded lifecycle transition.
type LifecycleEvent struct {
	Phase    LifecyclePhase
	Version  string
	Duration time.Duration
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, ErrorRecord{
		packageName: packageName,
		action:      action,
		cause:       cause,
		errorString: errorString,
		observedAt:  observedAt,
		attrs:       attrs,
	})
}

func (m *MemorySink) RecordFetch(fetchUrl string, httpStatus int, duration time.Duration, retryCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, FetchEvent{
		fetchUrl:   fetchUrl,
		httpStatus: httpStatus,
		duration:   duration,
		retryCount: retryCount,
	})
}

func (m *MemorySink) RecordCacheLookup(storeName string, fetchUrl string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, LookupEvent{
		storeName: storeName,
		fetchUrl:  fetchUrl,
		hit:       hit,
	})
}

func (m *MemorySink) RecordFallback(fetchUrl string, kind FallbackKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, FallbackEvent{
		FetchURL: fetchUrl,
		Kind:     kind,
	})
}

func (m *MemorySink) RecordLifecycle(phase LifecyclePhase, version string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lifecycles = append(m.lifecycles, LifecycleEvent{
		Phase:    phase,
		Version:  version,
		Duration: duration,
	})
}

// ErrorCauses lists the cause of every recorded error, in order.
func (m *MemorySink) ErrorCauses() []ErrorCause {
	m.mu.Lock()
	defer m.mu.Unlock()
	causes := make([]ErrorCause, 0, len(m.errors))
	for _, record := range m.errors {
		causes = append(causes, record.cause)
	}
	return causes
}

// FetchCount reports how many network fetches were recorded.
func (m *MemorySink) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetches)
}

// Fetches returns the recorded network fetches.
func (m *MemorySink) Fetches() []FetchEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	cloned := make([]FetchEvent, len(m.fetches))
	copy(cloned, m.fetches)
	return cloned
}

// Lookups returns the recorded cache lookups.
func (m *MemorySink) Lookups() []LookupEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	cloned := make([]LookupEvent, len(m.lookups))
	copy(cloned, m.lookups)
	return cloned
}

// Fallbacks returns the recorded fallback selections.
func (m *MemorySink) Fallbacks() []FallbackEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	cloned := make([]FallbackEvent, len(m.fallbacks))
	copy(cloned, m.fallbacks)
	return cloned
}

// Lifecycles returns the recorded lifecycle transitions.
func (m *MemorySink) Lifecycles() []LifecycleEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	cloned := make([]LifecycleEvent, len(m.lifecycles))
	copy(cloned, m.lifecycles)
	return cloned
}
