package notification

import (
	"context"
	"errors"
	"io"
	"testing"

	"shamela/internal/infrastructure/logging"
	"shamela/internal/platform"
)

type fakeNotifier struct {
	supported bool
	probes    int
	sent      []platform.Notification
	err       error
}

func (f *fakeNotifier) NotificationsSupported(ctx context.Context) bool {
	f.probes++
	return f.supported
}

func (f *fakeNotifier) Notify(ctx context.Context, n platform.Notification) error {
	f.sent = append(f.sent, n)
	return f.err
}

func quietLogger() logging.Logger {
	return logging.NewLogger(io.Discard, logging.LevelDebug)
}

func TestPlugin_Granted(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{supported: true}
	p := New("Shamela", n, quietLogger())

	if p.RequestPermission() != PermissionGranted {
		t.Fatal("Expected granted permission")
	}
	if err := p.SendNotification("اكتمل التصدير", "كتاب التوحيد"); err != nil {
		t.Fatalf("SendNotification() error = %v", err)
	}
	if !p.IsPermissionGranted() {
		t.Error("Expected cached permission")
	}

	if n.probes != 1 {
		t.Errorf("Expected a single probe, got %d", n.probes)
	}
	want := platform.Notification{AppName: "Shamela", Title: "اكتمل التصدير", Body: "كتاب التوحيد"}
	if len(n.sent) != 1 || n.sent[0] != want {
		t.Errorf("Unexpected notifications %+v", n.sent)
	}
}

func TestPlugin_Denied(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{supported: false}
	p := New("Shamela", n, quietLogger())

	if p.RequestPermission() != PermissionDenied {
		t.Error("Expected denied permission")
	}
	if err := p.SendNotification("t", "b"); err != nil {
		t.Errorf("Denied sends should be silent, got %v", err)
	}
	if len(n.sent) != 0 {
		t.Error("Nothing should be sent without permission")
	}
}

func TestPlugin_NotifyFailureIsSilent(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{supported: true, err: errors.New("daemon gone")}
	p := New("Shamela", n, quietLogger())

	if err := p.SendNotification("t", "b"); err != nil {
		t.Errorf("Expected failure to be swallowed, got %v", err)
	}
	if p.Name() != "notification" || p.Init(context.Background()) != nil {
		t.Error("Unexpected plugin identity")
	}
}
