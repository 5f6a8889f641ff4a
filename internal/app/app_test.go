package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shamela/internal/scraper"
	"shamela/internal/webview"
)

type fakeWindow struct {
	label string
	url   string
}

func (w *fakeWindow) Label() string { return w.label }

func (w *fakeWindow) URL(ctx context.Context) (string, error) {
	return w.url, nil
}

func (w *fakeWindow) Eval(ctx context.Context, script string) error {
	if script == "let = ;" {
		return &webview.ScriptError{Message: "SyntaxError: Unexpected token '='"}
	}
	return nil
}

type event struct {
	name string
	data interface{}
}

type eventLog struct {
	mu     sync.Mutex
	events []event
	signal chan event
}

func newEventLog() *eventLog {
	return &eventLog{signal: make(chan event, 64)}
}

func (l *eventLog) emit(ctx context.Context, name string, data ...interface{}) {
	e := event{name: name}
	if len(data) > 0 {
		e.data = data[0]
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
	l.signal <- e
}

func (l *eventLog) wait(t *testing.T, name string) event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-l.signal:
			if e.name == name {
				return e
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for %s", name)
		}
	}
}

func newTestApp(t *testing.T, opts ...Option) (*App, *eventLog) {
	t.Helper()
	events := newEventLog()
	opts = append([]Option{
		WithEmitter(events.emit),
		WithWindowFactory(func(ctx context.Context) webview.Window {
			return &fakeWindow{label: MainWindow, url: "https://app.local/index.html"}
		}),
	}, opts...)
	return NewApp(testConfig(t), quietLogger(), opts...), events
}

func TestApp_WebviewCommands(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)

	if _, err := a.WebviewGetURL(MainWindow); err == nil || err.Error() != "Webview window not found: main" {
		t.Errorf("Expected not found before startup, got %v", err)
	}

	a.Startup(context.Background())
	defer a.Shutdown(context.Background())

	url, err := a.WebviewGetURL(MainWindow)
	if err != nil || url != "https://app.local/index.html" {
		t.Errorf("WebviewGetURL(main) = %q, %v", url, err)
	}

	_, err = a.WebviewGetURL("ghost")
	if err == nil || err.Error() != "Webview window not found: ghost" {
		t.Errorf("WebviewGetURL(ghost) error = %v", err)
	}
	if err := a.WebviewEval("ghost", "void 0"); !errors.Is(err, webview.ErrWindowNotFound) {
		t.Errorf("WebviewEval(ghost) error = %v", err)
	}

	if err := a.WebviewEval(MainWindow, "void 0"); err != nil {
		t.Errorf("WebviewEval(no-op) error = %v", err)
	}
	err = a.WebviewEval(MainWindow, "let = ;")
	if err == nil || err.Error() != "SyntaxError: Unexpected token '='" {
		t.Errorf("Expected runtime error text unmodified, got %v", err)
	}
}

func TestApp_ShutdownForgetsMainWindow(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	a.Startup(context.Background())
	a.Shutdown(context.Background())

	if labels := a.Windows().Labels(); len(labels) != 0 {
		t.Errorf("Expected no windows after shutdown, got %v", labels)
	}
}

func TestApp_ScrapeBookValidation(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)

	if err := a.ScrapeBook(0, ""); err == nil {
		t.Error("Expected validation error for book id 0")
	}
	if err := a.ScrapeBook(1, ""); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted, got %v", err)
	}
	if a.CancelScrape() {
		t.Error("CancelScrape() with nothing running = true")
	}
}

func TestApp_ScrapeBookStreamsErrors(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	a, events := newTestApp(t, WithScraper(scraper.New(scraper.WithBaseURL(server.URL))))
	a.Startup(context.Background())
	defer a.Shutdown(context.Background())

	if err := a.ScrapeBook(7, ""); err != nil {
		t.Fatalf("ScrapeBook() error = %v", err)
	}

	e := events.wait(t, EventScrapeError)
	if e.data != "cloudflare_challenge" {
		t.Errorf("Expected cloudflare_challenge, got %v", e.data)
	}
}

func TestApp_ScrapeBookSingleRunAndCancel(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	a, events := newTestApp(t, WithScraper(scraper.New(scraper.WithBaseURL(server.URL))))
	a.Startup(context.Background())

	if err := a.ScrapeBook(7, ""); err != nil {
		t.Fatal(err)
	}
	<-started

	if err := a.ScrapeBook(8, ""); !errors.Is(err, ErrScrapeRunning) {
		t.Errorf("Expected ErrScrapeRunning, got %v", err)
	}
	if !a.CancelScrape() {
		t.Error("CancelScrape() = false with a scrape running")
	}

	close(release)
	a.Shutdown(context.Background())

	events.mu.Lock()
	defer events.mu.Unlock()
	for _, e := range events.events {
		if e.name == EventScrapeError {
			t.Errorf("A cancelled scrape must not report an error, got %v", e.data)
		}
	}
}
