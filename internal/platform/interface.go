package platform

import (
	"context"
	"errors"
)

// ErrUnsupported is returned for features the current OS build does not provide
var ErrUnsupported = errors.New("not supported on this platform")

// API defines the interface for platform-specific operations used by the plugins
type API interface {
	// FreeDiskSpace returns the bytes available to the current user on the volume holding path
	FreeDiskSpace(path string) (uint64, error)
	// NotificationsSupported reports whether a desktop notification service is reachable
	NotificationsSupported(ctx context.Context) bool
	// Notify shows a desktop notification
	Notify(ctx context.Context, n Notification) error
}

// Notification is a desktop notification
type Notification struct {
	AppName string `json:"appName"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Icon    string `json:"icon,omitempty"`
}
