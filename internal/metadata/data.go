package metadata

import (
	"time"
)

type FetchEvent struct {
	fetchUrl   string
	httpStatus int
	duration   time.Duration
	retryCount int
}

func (e *FetchEvent) URL() string {
	return e.fetchUrl
}

func (e *FetchEvent) Status() int {
	return e.httpStatus
}

type LookupEvent struct {
	storeName string
	fetchUrl  string
	hit       bool
}

func (e *LookupEvent) Store() string {
	return e.storeName
}

func (e *LookupEvent) URL() string {
	return e.fetchUrl
}

func (e *LookupEvent) Hit() bool {
	return e.hit
}

// LifecyclePhase labels a worker lifecycle transition for observability.
type LifecyclePhase string

const (
	PhaseInstall  LifecyclePhase = "install"
	PhaseActivate LifecyclePhase = "activate"
	PhaseClaim    LifecyclePhase = "claim"
	PhaseClear    LifecyclePhase = "clear"
)

// FallbackKind labels which recovery path produced a response.
type FallbackKind string

const (
	FallbackRuntimeCache FallbackKind = "runtime_cache"
	FallbackOfflinePage  FallbackKind = "offline_page"
	FallbackShell        FallbackKind = "shell"
	FallbackSynthetic    FallbackKind = "synthetic"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, fallback, or abort decisions.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

# CauseNetworkFailure

  - Failure caused by network transport or remote availability.
  - TCP timeouts, DNS resolution failures, connection resets.

# CausePrecacheFailure

  - An asset in the precache list could not be fetched successfully
    during install, aborting the whole batch.

# CauseStorageFailure

  - Failure while reading or writing the cache stores.
  - Disk full, storage disabled, I/O failures.

# CausePayloadInvalid

  - A control message or push payload could not be interpreted.
*/
const (
	CauseUnknown = iota
	CauseNetworkFailure
	CausePrecacheFailure
	CauseStorageFailure
	CausePayloadInvalid
)

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime        AttributeKey = "time"
	AttrURL         AttributeKey = "url"
	AttrHost        AttributeKey = "host"
	AttrPath        AttributeKey = "path"
	AttrStore       AttributeKey = "store"
	AttrVersion     AttributeKey = "version"
	AttrMessage     AttributeKey = "message"
	AttrHTTPStatus  AttributeKey = "http_status"
	AttrMessageType AttributeKey = "message_type"
	AttrSyncTag     AttributeKey = "sync_tag"
)
