package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	//===============
	//  Cache identity
	//===============
	// Cache version string. Store names embed it, so bumping the version
	// creates fresh stores without mutating old ones.
	version string
	// Origin the worker serves, e.g. https://studio.example.com.
	// Root-relative precache paths are resolved against it.
	siteOrigin url.URL

	//===============
	//  Precache
	//===============
	// Root-relative paths fetched and stored at install time, all-or-nothing.
	precachePaths []string
	// Root-relative path of the app shell document.
	shellPath string
	// Root-relative path of the offline fallback page.
	offlinePath string

	//===============
	//  Routing
	//===============
	// Origin prefixes of external hosts (fonts, CDNs) eligible for
	// runtime caching. Non-matching cross-origin requests pass through.
	runtimeAllowlist []string
	// Same-origin path prefixes that signal a dynamic API endpoint.
	apiPathPrefixes []string

	//===============
	//  Network
	//===============
	// Maximum time of a single fetch request.
	timeout time.Duration
	// User agent applied to outgoing requests.
	userAgent string

	//===============
	//  Deferred retry (outbox drain)
	//===============
	// Maximum attempts when replaying a queued submission.
	maxAttempt int
	// Initial delay for backoff.
	backoffInitialDuration time.Duration
	// Multiplier during exponential backoff.
	backoffMultiplier float64
	// Capped maximum delay for backoff.
	backoffMaxDuration time.Duration
	// Randomized variation added on top of the backoff delay.
	jitter time.Duration
	// Controls the random number generator.
	randomSeed int64

	//===============
	//  Host
	//===============
	// Path of the SQLite cache database. Empty means in-memory stores.
	storagePath string
	// Address the gateway listens on.
	listenAddr string
}

type configDTO struct {
	Version                string        `json:"version" env:"OFFCACHE_VERSION"`
	SiteOrigin             string        `json:"siteOrigin" env:"OFFCACHE_SITE_ORIGIN"`
	PrecachePaths          []string      `json:"precachePaths,omitempty"`
	ShellPath              string        `json:"shellPath,omitempty" env:"OFFCACHE_SHELL_PATH"`
	OfflinePath            string        `json:"offlinePath,omitempty" env:"OFFCACHE_OFFLINE_PATH"`
	RuntimeAllowlist       []string      `json:"runtimeAllowlist,omitempty" env:"OFFCACHE_RUNTIME_ALLOWLIST"`
	APIPathPrefixes        []string      `json:"apiPathPrefixes,omitempty" env:"OFFCACHE_API_PATH_PREFIXES"`
	Timeout                time.Duration `json:"timeout,omitempty" env:"OFFCACHE_TIMEOUT"`
	UserAgent              string        `json:"userAgent,omitempty" env:"OFFCACHE_USER_AGENT"`
	MaxAttempt             int           `json:"maxAttempt,omitempty" env:"OFFCACHE_MAX_ATTEMPT"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	StoragePath            string        `json:"storagePath,omitempty" env:"OFFCACHE_STORAGE_PATH"`
	ListenAddr             string        `json:"listenAddr,omitempty" env:"OFFCACHE_LISTEN_ADDR"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	siteOrigin, err := parseSiteOrigin(dto.SiteOrigin)
	if err != nil {
		return Config{}, err
	}

	// Start with default config
	builder := WithDefault(dto.Version, siteOrigin, dto.PrecachePaths)

	if dto.ShellPath != "" {
		builder = builder.WithShellPath(dto.ShellPath)
	}
	if dto.OfflinePath != "" {
		builder = builder.WithOfflinePath(dto.OfflinePath)
	}
	if len(dto.RuntimeAllowlist) > 0 {
		builder = builder.WithRuntimeAllowlist(dto.RuntimeAllowlist)
	}
	if len(dto.APIPathPrefixes) > 0 {
		builder = builder.WithAPIPathPrefixes(dto.APIPathPrefixes)
	}
	if dto.Timeout != 0 {
		builder = builder.WithTimeout(dto.Timeout)
	}
	if dto.UserAgent != "" {
		builder = builder.WithUserAgent(dto.UserAgent)
	}
	if dto.MaxAttempt != 0 {
		builder = builder.WithMaxAttempt(dto.MaxAttempt)
	}
	if dto.BackoffInitialDuration != 0 {
		builder = builder.WithBackoffInitialDuration(dto.BackoffInitialDuration)
	}
	if dto.BackoffMultiplier != 0 {
		builder = builder.WithBackoffMultiplier(dto.BackoffMultiplier)
	}
	if dto.BackoffMaxDuration != 0 {
		builder = builder.WithBackoffMaxDuration(dto.BackoffMaxDuration)
	}
	if dto.Jitter != 0 {
		builder = builder.WithJitter(dto.Jitter)
	}
	if dto.RandomSeed != 0 {
		builder = builder.WithRandomSeed(dto.RandomSeed)
	}
	if dto.StoragePath != "" {
		builder = builder.WithStoragePath(dto.StoragePath)
	}
	if dto.ListenAddr != "" {
		builder = builder.WithListenAddr(dto.ListenAddr)
	}

	return builder.Build()
}

// WithConfigFile loads configuration from a JSON file, then applies
// environment variable overrides on top.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	if err := env.Parse(&cfgDTO); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

func parseSiteOrigin(raw string) (url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return url.URL{}, fmt.Errorf("%w: siteOrigin is required", ErrInvalidConfig)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, fmt.Errorf("%w: siteOrigin: %s", ErrInvalidConfig, err.Error())
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return url.URL{}, fmt.Errorf("%w: siteOrigin must include scheme and host", ErrInvalidConfig)
	}
	return *parsed, nil
}

//===============
//  Accessors
//===============

func (c *Config) Version() string {
	return c.version
}

func (c *Config) SiteOrigin() url.URL {
	return c.siteOrigin
}

func (c *Config) PrecachePaths() []string {
	cloned := make([]string, len(c.precachePaths))
	copy(cloned, c.precachePaths)
	return cloned
}

func (c *Config) ShellPath() string {
	return c.shellPath
}

func (c *Config) OfflinePath() string {
	return c.offlinePath
}

func (c *Config) RuntimeAllowlist() []string {
	return c.runtimeAllowlist
}

func (c *Config) APIPathPrefixes() []string {
	return c.apiPathPrefixes
}

func (c *Config) Timeout() time.Duration {
	return c.timeout
}

func (c *Config) UserAgent() string {
	return c.userAgent
}

func (c *Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c *Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c *Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c *Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c *Config) Jitter() time.Duration {
	return c.jitter
}

func (c *Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c *Config) StoragePath() string {
	return c.storagePath
}

func (c *Config) ListenAddr() string {
	return c.listenAddr
}

// StaticStoreName derives the versioned static precache store name.
func (c *Config) StaticStoreName() string {
	return "static-" + c.version
}

// RuntimeStoreName derives the versioned runtime store name.
func (c *Config) RuntimeStoreName() string {
	return "runtime-" + c.version
}

// ResolvePath resolves a root-relative path against the site origin,
// producing the absolute URL used for cache keys and install fetches.
// The path is parsed as a URL reference so a query string stays a query
// string instead of being escaped into the path.
func (c *Config) ResolvePath(path string) url.URL {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: path}
	}
	resolved := c.siteOrigin.ResolveReference(ref)
	return *resolved
}
