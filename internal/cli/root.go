package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/offcache/internal/build"
	"github.com/rohmanhakim/offcache/internal/config"
	"github.com/rohmanhakim/offcache/internal/fetcher"
	"github.com/rohmanhakim/offcache/internal/gateway"
	"github.com/rohmanhakim/offcache/internal/manifest"
	"github.com/rohmanhakim/offcache/internal/metadata"
	"github.com/rohmanhakim/offcache/internal/metrics"
	"github.com/rohmanhakim/offcache/internal/notify"
	"github.com/rohmanhakim/offcache/internal/store"
	"github.com/rohmanhakim/offcache/internal/worker"
)

var (
	cfgFile       string
	manifestFile  string
	siteOrigin    string
	cacheVersion  string
	precachePaths []string
	storagePath   string
	listenAddr    string
	userAgent     string
	timeout       time.Duration
	skipWaiting   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "offcache",
	Short: "An offline-first cache worker for static sites.",
	Long: `offcache sits in front of a static site and keeps it reachable
offline: it precaches the core assets of a versioned release, serves
static content cache-first, keeps dynamic content network-first with a
cached fallback, and replays deferred form submissions once the network
returns.

The cache manifest (version + asset list) drives installs; editing it
while offcache runs swaps in the new version without downtime.`,
	Version: build.FullVersion(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /etc/offcache/config.json)")
	rootCmd.PersistentFlags().StringVar(&manifestFile, "manifest", "", "cache manifest path (YAML with version + asset list)")
	rootCmd.PersistentFlags().StringVar(&siteOrigin, "site-origin", "", "origin of the site being cached (e.g., https://studio.example.com)")
	rootCmd.PersistentFlags().StringVar(&cacheVersion, "cache-version", "", "cache version when no manifest is given")
	rootCmd.PersistentFlags().StringArrayVar(&precachePaths, "precache", []string{}, "root-relative path to precache (can be repeated)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage-path", "", "SQLite database path; empty keeps stores in memory")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "address the gateway listens on")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for outgoing requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for outgoing requests")
	rootCmd.PersistentFlags().BoolVar(&skipWaiting, "skip-waiting", true, "activate immediately after install")
}

// InitConfigWithError assembles the configuration from, in order of
// preference: the config file, the cache manifest plus flags, or flags
// alone.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	origin, err := parseOrigin(siteOrigin)
	if err != nil {
		return config.Config{}, err
	}

	if manifestFile != "" {
		m, loadErr := manifest.Load(manifestFile)
		if loadErr != nil {
			return config.Config{}, fmt.Errorf("error loading manifest: %w", loadErr)
		}
		return configFromManifest(m, origin)
	}

	builder := config.WithDefault(cacheVersion, origin, precachePaths)
	applyFlagOverrides(builder)
	return builder.Build()
}

func parseOrigin(raw string) (url.URL, error) {
	if raw == "" {
		return url.URL{}, fmt.Errorf("%w: --site-origin is required without a config file", config.ErrInvalidConfig)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, fmt.Errorf("%w: site origin: %s", config.ErrInvalidConfig, err.Error())
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return url.URL{}, fmt.Errorf("%w: site origin must include scheme and host", config.ErrInvalidConfig)
	}
	return *parsed, nil
}

// configFromManifest seeds the builder from a loaded manifest; flags still
// override the ambient settings.
func configFromManifest(m manifest.Manifest, origin url.URL) (config.Config, error) {
	builder := config.WithDefault(m.Version(), origin, m.Assets()).
		WithShellPath(m.Shell()).
		WithOfflinePath(m.Offline())
	applyFlagOverrides(builder)
	return builder.Build()
}

func applyFlagOverrides(builder *config.Config) {
	if storagePath != "" {
		builder.WithStoragePath(storagePath)
	}
	if listenAddr != "" {
		builder.WithListenAddr(listenAddr)
	}
	if userAgent != "" {
		builder.WithUserAgent(userAgent)
	}
	if timeout > 0 {
		builder.WithTimeout(timeout)
	}
}

// serve wires the full stack and runs the gateway until interrupted.
func serve(parent context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	promSink := metrics.NewPromSink(registry)
	recorder := metadata.NewRecorder("offcache", logger)
	sink := metadata.NewFanoutSink(&recorder, promSink)

	host, closeHost, err := openHost(cfg, logger)
	if err != nil {
		return err
	}
	defer closeHost()

	notifier := notify.NewLogNotifier(logger)
	cacheWorker, err := startWorker(ctx, cfg, host, sink, notifier)
	if err != nil {
		return err
	}

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	g := gateway.NewGateway(cacheWorker, cfg.SiteOrigin(), logger, metricsHandler)

	if manifestFile != "" {
		watcher, watchErr := manifest.NewWatcher(manifestFile, cfg.Version(), 0, logger)
		if watchErr != nil {
			return fmt.Errorf("error watching manifest: %w", watchErr)
		}
		go watcher.Run(ctx)
		go swapOnUpdate(ctx, watcher, cfg, host, sink, notifier, g, logger)
	}

	server := &http.Server{Addr: cfg.ListenAddr(), Handler: g}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gateway listening",
			slog.String("addr", cfg.ListenAddr()),
			slog.String("version", cfg.Version()),
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openHost(cfg config.Config, logger *slog.Logger) (store.Host, func(), error) {
	if cfg.StoragePath() == "" {
		return store.NewMemoryHost(), func() {}, nil
	}
	sqliteHost, err := store.OpenSQLiteHost(cfg.StoragePath())
	if err != nil {
		return nil, nil, fmt.Errorf("error opening storage: %w", err)
	}
	closeHost := func() {
		if closeErr := sqliteHost.Close(); closeErr != nil {
			logger.Warn("closing storage failed", slog.String("error", closeErr.Error()))
		}
	}
	return sqliteHost, closeHost, nil
}

// startWorker installs a fresh worker and, unless told to wait,
// activates it right away.
func startWorker(
	ctx context.Context,
	cfg config.Config,
	host store.Host,
	sink metadata.MetadataSink,
	notifier notify.Notifier,
) (*worker.Worker, error) {
	httpFetcher := fetcher.NewHTTPFetcher(sink, cfg.Timeout(), cfg.UserAgent())
	cacheWorker := worker.NewWorker(cfg, host, &httpFetcher, sink, notifier)

	if err := cacheWorker.Install(ctx); err != nil {
		return nil, fmt.Errorf("install failed: %w", err)
	}
	if skipWaiting {
		if err := cacheWorker.Activate(ctx); err != nil {
			return nil, fmt.Errorf("activate failed: %w", err)
		}
	}
	return cacheWorker, nil
}

// swapOnUpdate installs a worker for every manifest version the watcher
// reports and swaps it into the gateway once active. A failed install
// keeps the previous version serving.
func swapOnUpdate(
	ctx context.Context,
	watcher *manifest.Watcher,
	cfg config.Config,
	host store.Host,
	sink metadata.MetadataSink,
	notifier notify.Notifier,
	g *gateway.Gateway,
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-watcher.Updates():
			if !ok {
				return
			}
			nextCfg, err := configFromManifest(m, cfg.SiteOrigin())
			if err != nil {
				logger.Error("manifest update rejected", slog.String("error", err.Error()))
				continue
			}
			nextWorker, err := startWorker(ctx, nextCfg, host, sink, notifier)
			if err != nil {
				logger.Error("version rollout failed",
					slog.String("version", nextCfg.Version()),
					slog.String("error", err.Error()),
				)
				continue
			}
			g.Swap(nextWorker)
			logger.Info("version rolled out", slog.String("version", nextCfg.Version()))
		}
	}
}

func ResetFlags() {
	cfgFile = ""
	manifestFile = ""
	siteOrigin = ""
	cacheVersion = ""
	precachePaths = []string{}
	storagePath = ""
	listenAddr = ""
	userAgent = ""
	timeout = 0
	skipWaiting = true
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetManifestForTest(path string) {
	manifestFile = path
}

func SetSiteOriginForTest(origin string) {
	siteOrigin = origin
}

func SetCacheVersionForTest(version string) {
	cacheVersion = version
}

func SetPrecachePathsForTest(paths []string) {
	precachePaths = paths
}

func SetListenAddrForTest(addr string) {
	listenAddr = addr
}
