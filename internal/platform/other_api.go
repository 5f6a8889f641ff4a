//go:build !linux && !darwin && !windows

package platform

import "context"

// OtherAPI is used on platforms without native support
type OtherAPI struct{}

// NewAPI creates a new API instance
func NewAPI() API {
	return &OtherAPI{}
}

func (o *OtherAPI) FreeDiskSpace(path string) (uint64, error) {
	return 0, ErrUnsupported
}

func (o *OtherAPI) NotificationsSupported(ctx context.Context) bool {
	return false
}

func (o *OtherAPI) Notify(ctx context.Context, n Notification) error {
	return ErrUnsupported
}
