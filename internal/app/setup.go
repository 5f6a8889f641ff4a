package app

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/options"

	"shamela/internal/config"
	"shamela/internal/database"
	"shamela/internal/infrastructure/logging"
	"shamela/internal/plugins"
	"shamela/internal/plugins/applog"
	"shamela/internal/plugins/dialog"
	"shamela/internal/plugins/fs"
	"shamela/internal/plugins/notification"
	"shamela/internal/plugins/store"
)

// IsDebugBuild reports whether the binary was built with the dev or debug tag
func IsDebugBuild() bool {
	return debugBuild
}

// New assembles the shell for this build: the capability plugins in fixed order
// (fs, dialog, notification, store), the command surface, then the debug-only log plugin.
func New(cfg *config.Config, logger *logging.DefaultLogger, base options.App, opts ...Option) (*Builder, *App) {
	return assemble(cfg, logger, base, debugBuild, opts...)
}

func assemble(cfg *config.Config, logger *logging.DefaultLogger, base options.App, debug bool, opts ...Option) (*Builder, *App) {
	application := NewApp(cfg, logger, opts...)

	b := NewBuilder(base, logger, cfg.LogLevel()).
		Plugin(fs.New(cfg.FS.Scopes, nil, logger)).
		Plugin(dialog.New(nil, logger)).
		Plugin(notification.New(cfg.Window.Title, nil, logger)).
		Plugin(store.New(database.NewSQLiteService(logger), cfg.Database, logger)).
		Bind(application).
		Lifecycle(application).
		Setup(logPluginHook(debug, func() plugins.Plugin {
			return applog.New(cfg.App.LogDir, logging.LevelInfo, applog.WithShellLogger(logger))
		}))

	return b, application
}

// logPluginHook registers the log plugin only in debug builds
func logPluginHook(debug bool, newPlugin func() plugins.Plugin) SetupHook {
	return func(ctx context.Context, b *Builder) error {
		if !debug {
			return nil
		}
		return b.Register(ctx, newPlugin())
	}
}
