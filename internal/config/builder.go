package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// WithDefault creates a builder seeded with the mandatory fields and
// default values for everything else. Finish with Build, which validates.
func WithDefault(version string, siteOrigin url.URL, precachePaths []string) *Config {
	defaultConfig := Config{
		version:       version,
		siteOrigin:    siteOrigin,
		precachePaths: precachePaths,
		shellPath:     "/index.html",
		offlinePath:   "/offline.html",
		runtimeAllowlist: []string{
			"https://fonts.googleapis.com",
			"https://fonts.gstatic.com",
			"https://cdnjs.cloudflare.com",
		},
		apiPathPrefixes:        []string{"/api/"},
		timeout:                time.Second * 10,
		userAgent:              "offcache/1.0",
		maxAttempt:             5,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		jitter:                 time.Millisecond * 500,
		randomSeed:             time.Now().UnixNano(),
		storagePath:            "",
		listenAddr:             ":8787",
	}
	return &defaultConfig
}

func (c *Config) WithShellPath(path string) *Config {
	c.shellPath = path
	return c
}

func (c *Config) WithOfflinePath(path string) *Config {
	c.offlinePath = path
	return c
}

func (c *Config) WithRuntimeAllowlist(origins []string) *Config {
	c.runtimeAllowlist = origins
	return c
}

func (c *Config) WithAPIPathPrefixes(prefixes []string) *Config {
	c.apiPathPrefixes = prefixes
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(userAgent string) *Config {
	c.userAgent = userAgent
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(d time.Duration) *Config {
	c.backoffInitialDuration = d
	return c
}

func (c *Config) WithBackoffMultiplier(m float64) *Config {
	c.backoffMultiplier = m
	return c
}

func (c *Config) WithBackoffMaxDuration(d time.Duration) *Config {
	c.backoffMaxDuration = d
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithStoragePath(path string) *Config {
	c.storagePath = path
	return c
}

func (c *Config) WithListenAddr(addr string) *Config {
	c.listenAddr = addr
	return c
}

// Build validates the configuration and returns it by value.
func (c *Config) Build() (Config, error) {
	if strings.TrimSpace(c.version) == "" {
		return Config{}, fmt.Errorf("%w: version is required", ErrInvalidConfig)
	}
	if c.siteOrigin.Scheme == "" || c.siteOrigin.Host == "" {
		return Config{}, fmt.Errorf("%w: siteOrigin must include scheme and host", ErrInvalidConfig)
	}
	if len(c.precachePaths) == 0 {
		return Config{}, fmt.Errorf("%w: precachePaths cannot be empty", ErrInvalidConfig)
	}
	for _, path := range c.precachePaths {
		if !strings.HasPrefix(path, "/") {
			return Config{}, fmt.Errorf("%w: precache path %q is not root-relative", ErrInvalidConfig, path)
		}
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	return *c, nil
}
