package notification

import (
	"context"
	"sync"
	"time"

	"shamela/internal/infrastructure/logging"
	"shamela/internal/platform"
)

const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

const probeTimeout = 2 * time.Second

// Notifier is the platform notification backend
type Notifier interface {
	NotificationsSupported(ctx context.Context) bool
	Notify(ctx context.Context, n platform.Notification) error
}

// Plugin sends desktop notifications. Where no notification service exists
// permission is reported as denied and sends are dropped silently.
type Plugin struct {
	appName  string
	notifier Notifier
	logger   logging.Logger

	mu      sync.Mutex
	checked bool
	granted bool
}

// New creates the notification plugin. A nil notifier uses the platform implementation.
func New(appName string, notifier Notifier, logger logging.Logger) *Plugin {
	if notifier == nil {
		notifier = platform.NewAPI()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Plugin{appName: appName, notifier: notifier, logger: logger}
}

func (p *Plugin) Name() string {
	return "notification"
}

func (p *Plugin) Init(ctx context.Context) error {
	return nil
}

// IsPermissionGranted probes the notification service once and caches the answer
func (p *Plugin) IsPermissionGranted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.checked {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		p.granted = p.notifier.NotificationsSupported(ctx)
		cancel()
		p.checked = true
		p.logger.Debug("Notification permission", "granted", p.granted)
	}
	return p.granted
}

// RequestPermission returns "granted" or "denied"; desktop services need no prompt
func (p *Plugin) RequestPermission() string {
	if p.IsPermissionGranted() {
		return PermissionGranted
	}
	return PermissionDenied
}

// SendNotification shows title and body. Failures are logged, never returned to the page.
func (p *Plugin) SendNotification(title, body string) error {
	if !p.IsPermissionGranted() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := p.notifier.Notify(ctx, platform.Notification{
		AppName: p.appName,
		Title:   title,
		Body:    body,
	})
	if err != nil {
		p.logger.Warn("Notification failed", "title", title, "error", err)
	}
	return nil
}
