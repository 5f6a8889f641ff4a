//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DarwinAPI implements API for macOS platform
type DarwinAPI struct{}

// NewDarwinAPI creates a new macOS API instance
func NewDarwinAPI() *DarwinAPI {
	return &DarwinAPI{}
}

// NewAPI creates a new API instance for macOS
func NewAPI() API {
	return NewDarwinAPI()
}

func (d *DarwinAPI) FreeDiskSpace(path string) (uint64, error) {
	return statfsFree(path)
}

func (d *DarwinAPI) NotificationsSupported(ctx context.Context) bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}

// Notify uses AppleScript's display notification
func (d *DarwinAPI) Notify(ctx context.Context, n Notification) error {
	script := fmt.Sprintf("display notification %s with title %s", appleScriptString(n.Body), appleScriptString(n.Title))
	if out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("osascript failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
