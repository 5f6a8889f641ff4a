package app

import (
	"context"
	"fmt"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"

	"shamela/internal/infrastructure/logging"
	"shamela/internal/plugins"
)

// shutdownTimeout bounds the plugin shutdown sequence
const shutdownTimeout = 30 * time.Second

// Runner hands the assembled options to the host runtime and blocks until it exits
type Runner func(app *options.App) error

// SetupHook runs after the capability plugins and the command surface are registered.
// A returned error aborts startup as-is.
type SetupHook func(ctx context.Context, b *Builder) error

// Lifecycle receives the host runtime's window lifecycle callbacks
type Lifecycle interface {
	Startup(ctx context.Context)
	DomReady(ctx context.Context)
	BeforeClose(ctx context.Context) bool
	Shutdown(ctx context.Context)
}

// Builder collects plugins, bound objects and setup hooks and turns them into *options.App
type Builder struct {
	base   options.App
	logger logging.Logger
	level  logging.Level
	runner Runner

	queued     []plugins.Plugin
	registered []plugins.Plugin
	bind       []interface{}
	hooks      []SetupHook
	lifecycle  Lifecycle
}

// NewBuilder starts from base, which carries window and asset options
func NewBuilder(base options.App, logger logging.Logger, level logging.Level) *Builder {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Builder{
		base:   base,
		logger: logger,
		level:  level,
		runner: wails.Run,
	}
}

// WithRunner replaces wails.Run
func (b *Builder) WithRunner(r Runner) *Builder {
	if r != nil {
		b.runner = r
	}
	return b
}

// Plugin queues p for registration; queued plugins register in the order given
func (b *Builder) Plugin(p plugins.Plugin) *Builder {
	b.queued = append(b.queued, p)
	return b
}

// Bind exposes obj's exported methods to the frontend
func (b *Builder) Bind(obj interface{}) *Builder {
	b.bind = append(b.bind, obj)
	return b
}

// Setup adds a hook run once all queued plugins are registered
func (b *Builder) Setup(hook SetupHook) *Builder {
	b.hooks = append(b.hooks, hook)
	return b
}

// Lifecycle sets the receiver of the window lifecycle callbacks
func (b *Builder) Lifecycle(l Lifecycle) *Builder {
	b.lifecycle = l
	return b
}

// Register initialises p immediately and binds it. Setup hooks use it to add plugins.
func (b *Builder) Register(ctx context.Context, p plugins.Plugin) error {
	if err := p.Init(ctx); err != nil {
		return err
	}
	b.registered = append(b.registered, p)
	b.logger.Debug("Plugin registered", "plugin", p.Name())
	return nil
}

// Plugins lists the registered plugin names in registration order
func (b *Builder) Plugins() []string {
	names := make([]string, 0, len(b.registered))
	for _, p := range b.registered {
		names = append(names, p.Name())
	}
	return names
}

// Registered returns the registered plugin called name
func (b *Builder) Registered(name string) (plugins.Plugin, bool) {
	for _, p := range b.registered {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Build registers the queued plugins, runs the setup hooks and assembles the app options.
// On failure every plugin registered so far is shut down.
func (b *Builder) Build(ctx context.Context) (*options.App, error) {
	for _, p := range b.queued {
		if err := b.Register(ctx, p); err != nil {
			b.shutdownPlugins(ctx)
			return nil, fmt.Errorf("failed to register %s plugin: %w", p.Name(), err)
		}
	}
	b.queued = nil

	for _, hook := range b.hooks {
		if err := hook(ctx, b); err != nil {
			b.shutdownPlugins(ctx)
			return nil, err
		}
	}

	app := b.base
	// registered plugins come before the explicitly bound command surface
	app.Bind = make([]interface{}, 0, len(b.base.Bind)+len(b.registered)+len(b.bind))
	app.Bind = append(app.Bind, b.base.Bind...)
	for _, p := range b.registered {
		app.Bind = append(app.Bind, p)
	}
	app.Bind = append(app.Bind, b.bind...)
	app.Logger = logging.NewWailsLoggerAdapter(b.logger)
	app.LogLevel = logging.WailsLevel(b.level)
	app.OnStartup = b.startup
	app.OnDomReady = b.domReady
	app.OnBeforeClose = b.beforeClose
	app.OnShutdown = b.shutdown
	return &app, nil
}

// Run builds the app and hands it to the runner
func (b *Builder) Run(ctx context.Context) error {
	app, err := b.Build(ctx)
	if err != nil {
		return err
	}
	b.logger.Info("Starting shell", "plugins", b.Plugins())
	return b.runner(app)
}

func (b *Builder) startup(ctx context.Context) {
	for _, p := range b.registered {
		if s, ok := p.(plugins.Starter); ok {
			s.Startup(ctx)
		}
	}
	if b.lifecycle != nil {
		b.lifecycle.Startup(ctx)
	}
}

func (b *Builder) domReady(ctx context.Context) {
	if b.lifecycle != nil {
		b.lifecycle.DomReady(ctx)
	}
}

func (b *Builder) beforeClose(ctx context.Context) bool {
	if b.lifecycle != nil {
		return b.lifecycle.BeforeClose(ctx)
	}
	return false
}

func (b *Builder) shutdown(ctx context.Context) {
	if b.lifecycle != nil {
		b.lifecycle.Shutdown(ctx)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	b.shutdownPlugins(shutdownCtx)
}

// shutdownPlugins stops registered plugins in reverse order
func (b *Builder) shutdownPlugins(ctx context.Context) {
	for i := len(b.registered) - 1; i >= 0; i-- {
		s, ok := b.registered[i].(plugins.Stopper)
		if !ok {
			continue
		}
		if err := s.Shutdown(ctx); err != nil {
			logging.LogError(b.logger, err, "plugin_shutdown", map[string]interface{}{"plugin": b.registered[i].Name()})
		}
	}
	b.registered = nil
}
