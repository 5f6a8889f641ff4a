package main

import (
	"context"
	"embed"
	"flag"
	"log"
	"os"

	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"shamela/internal/app"
	"shamela/internal/config"
	dberrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to shamela.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(os.Stderr, cfg.LogLevel())
	dberrors.SetRetryLogger(dberrors.NewLoggerBridge(logger))

	builder, _ := app.New(cfg, logger, options.App{
		Title:            cfg.Window.Title,
		Width:            cfg.Window.Width,
		Height:           cfg.Window.Height,
		MinWidth:         cfg.Window.MinWidth,
		MinHeight:        cfg.Window.MinHeight,
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		WindowStartState: options.Normal,
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			ZoomFactor:           1.0,
		},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   cfg.Window.Title,
				Message: "Shamela EPUB exporter",
			},
		},
	})

	if err := builder.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
