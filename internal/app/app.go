package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"shamela/internal/bridge"
	"shamela/internal/config"
	dberrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
	"shamela/internal/scraper"
	"shamela/internal/webview"
)

// MainWindow is the label of the Wails application window
const MainWindow = config.MainWindowLabel

// Events streamed while a book is scraped
const (
	EventScrapeMeta     = "scrape://meta"
	EventScrapePage     = "scrape://page"
	EventScrapeProgress = "scrape://progress"
	EventScrapeDone     = "scrape://done"
	EventScrapeError    = "scrape://error"
)

const scrapeStopTimeout = 5 * time.Second

var (
	ErrNotStarted    = errors.New("application not started")
	ErrScrapeRunning = errors.New("a scrape is already running")
)

// Emitter publishes an event to the frontend
type Emitter func(ctx context.Context, name string, data ...interface{})

// WindowFactory creates the main window handle from the runtime context
type WindowFactory func(runtimeCtx context.Context) webview.Window

// App is the command surface bound to the frontend
type App struct {
	ctx       context.Context
	cfg       *config.Config
	logger    logging.Logger
	windows   *webview.Registry
	bridge    *bridge.Bridge
	scraper   *scraper.Scraper
	emit      Emitter
	newWindow WindowFactory

	mu      sync.Mutex
	running *scrapeJob
	wg      sync.WaitGroup
}

type scrapeJob struct {
	bookID int
	cancel context.CancelFunc
}

// Option configures the App
type Option func(*App)

// WithEmitter replaces runtime.EventsEmit
func WithEmitter(emit Emitter) Option {
	return func(a *App) {
		if emit != nil {
			a.emit = emit
		}
	}
}

// WithWindowFactory replaces the Wails main window
func WithWindowFactory(f WindowFactory) Option {
	return func(a *App) {
		if f != nil {
			a.newWindow = f
		}
	}
}

// WithScraper replaces the configured scraper
func WithScraper(s *scraper.Scraper) Option {
	return func(a *App) {
		if s != nil {
			a.scraper = s
		}
	}
}

// NewApp creates the App. When cfg.Fetch.ViaWebview is set the scraper fetches
// through the window registered as cfg.Fetch.WindowLabel so requests carry its
// Cloudflare clearance. Until such a window is on shamela.ws, requests go out
// directly.
func NewApp(cfg *config.Config, logger logging.Logger, opts ...Option) *App {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	windows := webview.NewRegistry()
	a := &App{
		cfg:     cfg,
		logger:  logger,
		windows: windows,
		bridge:  bridge.New(windows, bridge.Config{Label: cfg.Fetch.WindowLabel}, logger),
		emit:    runtime.EventsEmit,
	}
	a.newWindow = func(runtimeCtx context.Context) webview.Window {
		return webview.NewWailsWindow(runtimeCtx, MainWindow, webview.WithTimeout(cfg.Webview.EvalTimeout))
	}

	scraperOpts := []scraper.Option{
		scraper.WithUserAgent(cfg.Fetch.UserAgent),
		scraper.WithLogger(logger),
	}
	if cfg.Fetch.ViaWebview {
		scraperOpts = append(scraperOpts, scraper.WithTransport(&bridge.Transport{
			Bridge:   a.bridge,
			Fallback: http.DefaultTransport,
		}))
		logger.Info("Scraper fetches through webview window", "label", cfg.Fetch.WindowLabel)
	}
	a.scraper = scraper.New(scraperOpts...)

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Windows returns the window registry backing the webview commands
func (a *App) Windows() *webview.Registry {
	return a.windows
}

// Startup registers the main window
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	a.windows.Register(a.newWindow(ctx))
	a.logger.Info("Application started", "environment", a.cfg.App.Environment, "windows", a.windows.Labels())
}

func (a *App) DomReady(ctx context.Context) {
	a.logger.Debug("Frontend loaded")
}

func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	return false
}

// Shutdown stops a running scrape and forgets the main window
func (a *App) Shutdown(ctx context.Context) {
	a.CancelScrape()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(scrapeStopTimeout):
		a.logger.Warn("Scrape did not stop before shutdown")
	}

	a.windows.Unregister(MainWindow)
	a.logger.Info("Application shutdown completed")
}

func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ctx
}

func (a *App) commandContext() context.Context {
	if ctx := a.context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// WebviewGetURL returns the current URL of the window called label
func (a *App) WebviewGetURL(label string) (string, error) {
	return webview.GetURL(a.commandContext(), a.windows, label)
}

// WebviewEval executes script inside the window called label
func (a *App) WebviewEval(label, script string) error {
	return webview.Eval(a.commandContext(), a.windows, label, script)
}

// ScrapeBook starts scraping a book in the background. Results are streamed as
// scrape:// events; only one scrape runs at a time.
func (a *App) ScrapeBook(bookID int, volume string) error {
	if bookID <= 0 {
		return dberrors.HandleValidationError("ScrapeBook", "bookID", "", "book id must be positive")
	}

	runtimeCtx := a.context()
	if runtimeCtx == nil {
		return ErrNotStarted
	}

	a.mu.Lock()
	if a.running != nil {
		a.mu.Unlock()
		return ErrScrapeRunning
	}
	ctx, cancel := context.WithCancel(runtimeCtx)
	job := &scrapeJob{bookID: bookID, cancel: cancel}
	a.running = job
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		defer a.finishScrape(job)

		emit := func(name string, data interface{}) {
			a.emit(runtimeCtx, name, data)
		}
		err := a.scraper.ScrapeBook(ctx, bookID, scraper.Options{Volume: volume}, scraper.Callbacks{
			OnMeta:     func(info scraper.BookInfo) { emit(EventScrapeMeta, info) },
			OnPage:     func(page scraper.BookPage) { emit(EventScrapePage, page) },
			OnProgress: func(p scraper.Progress) { emit(EventScrapeProgress, p) },
			OnDone:     func() { emit(EventScrapeDone, bookID) },
			OnError:    func(err error) { emit(EventScrapeError, err.Error()) },
		})
		if errors.Is(err, scraper.ErrCloudflareChallenge) {
			a.bridge.Reset()
		}
	}()
	return nil
}

func (a *App) finishScrape(job *scrapeJob) {
	job.cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running == job {
		a.running = nil
	}
}

// CancelScrape stops the running scrape and reports whether one was running
func (a *App) CancelScrape() bool {
	a.mu.Lock()
	job := a.running
	a.running = nil
	a.mu.Unlock()

	if job == nil {
		return false
	}
	job.cancel()
	a.logger.Info("Scrape cancelled", "book_id", job.bookID)
	return true
}

// WaitForChallenge blocks until the fetch window has passed the Cloudflare challenge
func (a *App) WaitForChallenge() error {
	return a.bridge.WaitForChallenge(a.commandContext())
}
