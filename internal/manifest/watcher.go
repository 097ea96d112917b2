package manifest

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the manifest file and emits the freshly parsed manifest
// whenever its version string changes, the host-side analog of a browser
// noticing a new worker version. Writes that keep the version unchanged
// are ignored.
type Watcher struct {
	path     string
	current  string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	updates  chan Manifest
}

// NewWatcher creates a watcher for the manifest at path. currentVersion is
// the version already installed; only a differing version is reported.
func NewWatcher(path string, currentVersion string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files on save.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce == 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{
		path:     filepath.Clean(path),
		current:  currentVersion,
		debounce: debounce,
		logger:   logger,
		watcher:  fsw,
		updates:  make(chan Manifest, 1),
	}, nil
}

// Updates delivers manifests with a new version string.
func (w *Watcher) Updates() <-chan Manifest {
	return w.updates
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce: editors fire several events per save.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("manifest watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) reload() {
	m, err := Load(w.path)
	if err != nil {
		w.logger.Warn("manifest reload failed",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}
	if m.Version() == w.current {
		return
	}
	w.logger.Info("manifest version change detected",
		slog.String("from", w.current),
		slog.String("to", m.Version()))
	w.current = m.Version()

	// Drop a stale pending update rather than block the event loop.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- m
}
