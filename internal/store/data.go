package store

import (
	"time"
)

// Cache boundary

// Entry is a captured request/response pairing. Entries are immutable once
// written except by explicit overwrite of the same key.
type Entry struct {
	key        string
	url        string
	method     string
	statusCode int
	headers    map[string]string
	body       []byte
	storedAt   time.Time
}

func NewEntry(
	key string,
	url string,
	method string,
	statusCode int,
	headers map[string]string,
	body []byte,
	storedAt time.Time,
) Entry {
	return Entry{
		key:        key,
		url:        url,
		method:     method,
		statusCode: statusCode,
		headers:    cloneHeaders(headers),
		body:       cloneBody(body),
		storedAt:   storedAt,
	}
}

func (e *Entry) Key() string {
	return e.key
}

func (e *Entry) URL() string {
	return e.url
}

func (e *Entry) Method() string {
	return e.method
}

func (e *Entry) Code() int {
	return e.statusCode
}

func (e *Entry) Headers() map[string]string {
	return cloneHeaders(e.headers)
}

func (e *Entry) Body() []byte {
	return cloneBody(e.body)
}

func (e *Entry) StoredAt() time.Time {
	return e.storedAt
}

// SizeByte returns the stored body size.
func (e *Entry) SizeByte() uint64 {
	return uint64(len(e.body))
}

func cloneHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	cloned := make(map[string]string, len(headers))
	for k, v := range headers {
		cloned[k] = v
	}
	return cloned
}

func cloneBody(body []byte) []byte {
	if body == nil {
		return nil
	}
	cloned := make([]byte, len(body))
	copy(cloned, body)
	return cloned
}
