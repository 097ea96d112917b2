package urlutil

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse URL %q: %v", raw, err)
	}
	return *u
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases scheme and host",
			input: "HTTPS://Example.COM/style.css",
			want:  "https://example.com/style.css",
		},
		{
			name:  "removes default https port",
			input: "https://example.com:443/index.html",
			want:  "https://example.com/index.html",
		},
		{
			name:  "removes default http port",
			input: "http://example.com:80/",
			want:  "http://example.com/",
		},
		{
			name:  "keeps non-default port",
			input: "http://example.com:8080/app.js",
			want:  "http://example.com:8080/app.js",
		},
		{
			name:  "strips trailing slash",
			input: "https://example.com/components/",
			want:  "https://example.com/components",
		},
		{
			name:  "keeps root slash",
			input: "https://example.com/",
			want:  "https://example.com/",
		},
		{
			name:  "removes fragment",
			input: "https://example.com/index.html#contact",
			want:  "https://example.com/index.html",
		},
		{
			name:  "preserves query string",
			input: "https://example.com/api/projects?page=2&sort=date",
			want:  "https://example.com/api/projects?page=2&sort=date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize(mustParse(t, tt.input))
			if got.String() != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	input := mustParse(t, "HTTPS://Example.com:443/components/?x=1#top")

	once := Canonicalize(input)
	twice := Canonicalize(once)

	if once.String() != twice.String() {
		t.Errorf("Canonicalize not idempotent: %q != %q", once.String(), twice.String())
	}
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "full URL",
			input: "https://fonts.gstatic.com/s/font.woff2",
			want:  "https://fonts.gstatic.com",
		},
		{
			name:  "uppercase host is lowercased",
			input: "https://Fonts.Googleapis.COM/css2?family=Lora",
			want:  "https://fonts.googleapis.com",
		},
		{
			name:  "root-relative path has no origin",
			input: "/components/navbar.html",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Origin(mustParse(t, tt.input))
			if got != tt.want {
				t.Errorf("Origin(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{
			name: "same host and scheme",
			a:    "https://example.com/index.html",
			b:    "https://example.com/style.css",
			want: true,
		},
		{
			name: "different host",
			a:    "https://example.com/index.html",
			b:    "https://cdn.example.net/app.js",
			want: false,
		},
		{
			name: "different scheme",
			a:    "http://example.com/",
			b:    "https://example.com/",
			want: false,
		},
		{
			name: "relative URL is same origin",
			a:    "/offline.html",
			b:    "https://example.com/index.html",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SameOrigin(mustParse(t, tt.a), mustParse(t, tt.b))
			if got != tt.want {
				t.Errorf("SameOrigin(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMatchesOriginAllowlist(t *testing.T) {
	allowlist := []string{
		"https://fonts.googleapis.com",
		"https://fonts.gstatic.com",
		"https://cdnjs.cloudflare.com",
	}

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{
			name:  "allowlisted font host",
			input: "https://fonts.gstatic.com/s/lora/v32/font.woff2",
			want:  true,
		},
		{
			name:  "allowlisted CDN host",
			input: "https://cdnjs.cloudflare.com/ajax/libs/aos/2.3.4/aos.css",
			want:  true,
		},
		{
			name:  "unlisted host",
			input: "https://tracker.example.net/pixel.gif",
			want:  false,
		},
		{
			name:  "case-insensitive host match",
			input: "https://Fonts.GSTATIC.com/s/font.woff2",
			want:  true,
		},
		{
			name:  "relative URL never matches",
			input: "/style.css",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesOriginAllowlist(mustParse(t, tt.input), allowlist)
			if got != tt.want {
				t.Errorf("MatchesOriginAllowlist(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
