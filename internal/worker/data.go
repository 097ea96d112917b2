package worker

// State tracks where the worker sits in its lifecycle. Transitions only
// move forward (Uninstalled -> Installing -> Installed -> Activating ->
// Active); a failed install or a cache clear drops back to Uninstalled.
type State int

const (
	StateUninstalled State = iota
	StateInstalling
	// StateInstalled is the waiting period: the precache is complete but
	// an older installation may still be serving. SKIP_WAITING or an
	// explicit Activate promotes the worker out of it.
	StateInstalled
	StateActivating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// MessageType enumerates the control messages a client may send.
type MessageType string

const (
	MessageSkipWaiting MessageType = "SKIP_WAITING"
	MessageClearCache  MessageType = "CLEAR_CACHE"
	MessageCacheURLs   MessageType = "CACHE_URLS"
)

// Message is one control instruction from a client. Only CACHE_URLS
// carries a payload: the list of URLs to cache on demand.
type Message struct {
	kind MessageType
	urls []string
}

func NewMessage(kind MessageType, urls []string) Message {
	return Message{
		kind: kind,
		urls: urls,
	}
}

func (m *Message) Kind() MessageType {
	return m.kind
}

func (m *Message) URLs() []string {
	return m.urls
}
