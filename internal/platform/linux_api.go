//go:build linux

package platform

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
)

// LinuxAPI implements API for Linux platform
type LinuxAPI struct{}

// NewLinuxAPI creates a new Linux API instance
func NewLinuxAPI() *LinuxAPI {
	return &LinuxAPI{}
}

// NewAPI creates a new API instance for Linux
func NewAPI() API {
	return NewLinuxAPI()
}

func (l *LinuxAPI) FreeDiskSpace(path string) (uint64, error) {
	return statfsFree(path)
}

// NotificationsSupported checks that a notification daemon owns its name on the session bus
func (l *LinuxAPI) NotificationsSupported(ctx context.Context) bool {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return false
	}
	defer conn.Close()

	var owned bool
	err = conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, notificationsName).Store(&owned)
	return err == nil && owned
}

// Notify sends org.freedesktop.Notifications.Notify over the session bus
func (l *LinuxAPI) Notify(ctx context.Context, n Notification) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(notificationsName, dbus.ObjectPath(notificationsPath))
	call := obj.CallWithContext(ctx, notificationsName+".Notify", 0,
		n.AppName,
		uint32(0), // replaces_id
		n.Icon,
		n.Title,
		n.Body,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1), // server default timeout
	)
	if call.Err != nil {
		return fmt.Errorf("notify failed: %w", call.Err)
	}
	return nil
}
