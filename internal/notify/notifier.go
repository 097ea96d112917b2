package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier is the port for surfacing push notifications to whatever UI
// the host embeds the worker in. The worker only decides WHAT to show;
// implementations decide how.
type Notifier interface {
	// Show displays a notification.
	Show(ctx context.Context, notification Notification) error

	// OpenWindow focuses or opens the client surface at the given URL,
	// the click-through action of a displayed notification.
	OpenWindow(ctx context.Context, targetUrl string) error
}

// LogNotifier writes notifications to structured logs. The default for
// headless deployments where no UI surface exists.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Show(_ context.Context, notification Notification) error {
	n.logger.Info("notification",
		slog.String("title", notification.Title()),
		slog.String("body", notification.Body()),
		slog.String("url", notification.TargetURL()),
	)
	return nil
}

func (n *LogNotifier) OpenWindow(_ context.Context, targetUrl string) error {
	n.logger.Info("open window", slog.String("url", targetUrl))
	return nil
}

// MemoryNotifier records every call for inspection in tests.
type MemoryNotifier struct {
	mu     sync.Mutex
	shown  []Notification
	opened []string
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Show(_ context.Context, notification Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, notification)
	return nil
}

func (n *MemoryNotifier) OpenWindow(_ context.Context, targetUrl string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = append(n.opened, targetUrl)
	return nil
}

func (n *MemoryNotifier) Shown() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	cloned := make([]Notification, len(n.shown))
	copy(cloned, n.shown)
	return cloned
}

func (n *MemoryNotifier) Opened() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	cloned := make([]string, len(n.opened))
	copy(cloned, n.opened)
	return cloned
}
