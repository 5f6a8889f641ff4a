//go:build windows

package platform

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"
)

// WindowsAPI implements API for Windows platform
type WindowsAPI struct{}

// NewWindowsAPI creates a new Windows API instance
func NewWindowsAPI() *WindowsAPI {
	return &WindowsAPI{}
}

// NewAPI creates a new API instance for Windows
func NewAPI() API {
	return NewWindowsAPI()
}

// FreeDiskSpace calls GetDiskFreeSpaceExW, honouring per-user quotas
func (w *WindowsAPI) FreeDiskSpace(path string) (uint64, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var freeToCaller, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &freeToCaller, &total, &totalFree); err != nil {
		return 0, fmt.Errorf("GetDiskFreeSpaceEx %s: %w", path, err)
	}
	return freeToCaller, nil
}

// TODO: toast notifications need a registered AppUserModelID from the installer
func (w *WindowsAPI) NotificationsSupported(ctx context.Context) bool {
	return false
}

func (w *WindowsAPI) Notify(ctx context.Context, n Notification) error {
	return ErrUnsupported
}
