package store

import (
	"net/url"
	"testing"
)

func parseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse URL %q: %v", raw, err)
	}
	return *u
}

func TestEntryKey_Deterministic(t *testing.T) {
	u := parseURL(t, "https://example.com/style.css")

	first := EntryKey("GET", u)
	second := EntryKey("GET", u)

	if first != second {
		t.Errorf("EntryKey not deterministic: %q != %q", first, second)
	}
	if first == "" {
		t.Error("EntryKey returned empty key")
	}
}

func TestEntryKey_FoldsEquivalentSpellings(t *testing.T) {
	a := EntryKey("GET", parseURL(t, "https://Example.com:443/components/"))
	b := EntryKey("GET", parseURL(t, "https://example.com/components"))

	if a != b {
		t.Errorf("expected equivalent URL spellings to share a key: %q != %q", a, b)
	}
}

func TestEntryKey_DistinguishesQueryStrings(t *testing.T) {
	a := EntryKey("GET", parseURL(t, "https://example.com/api/projects?page=1"))
	b := EntryKey("GET", parseURL(t, "https://example.com/api/projects?page=2"))

	if a == b {
		t.Error("expected different query strings to produce different keys")
	}
}

func TestEntryKey_DistinguishesMethods(t *testing.T) {
	u := parseURL(t, "https://example.com/api/contact")

	if EntryKey("GET", u) == EntryKey("POST", u) {
		t.Error("expected different methods to produce different keys")
	}
}
