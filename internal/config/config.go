package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"shamela/internal/database"
	"shamela/internal/infrastructure/logging"
)

const (
	// AppName names the config, data and log directories
	AppName = "shamela"

	// FileName is the config file looked up in the user config dir
	FileName = "shamela.yaml"

	// MainWindowLabel is the Wails application window. It serves the app
	// frontend, so it can never host in-page fetches against shamela.ws.
	MainWindowLabel = "main"

	// DefaultFetchWindowLabel names the window expected on the shamela.ws origin
	DefaultFetchWindowLabel = "cf-fetch"
)

// Config is the shell configuration
type Config struct {
	App      AppConfig        `yaml:"app"`
	Window   WindowConfig     `yaml:"window"`
	Webview  WebviewConfig    `yaml:"webview"`
	Fetch    FetchConfig      `yaml:"fetch"`
	FS       FSConfig         `yaml:"fs"`
	Store    StoreConfig      `yaml:"store"`
	Database *database.Config `yaml:"database"`
}

type AppConfig struct {
	Environment string `yaml:"environment"` // development, production, test
	LogLevel    string `yaml:"logLevel"`
	LogDir      string `yaml:"logDir"`
	DataDir     string `yaml:"dataDir"`
}

type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	MinWidth  int    `yaml:"minWidth"`
	MinHeight int    `yaml:"minHeight"`
}

type WebviewConfig struct {
	// EvalTimeout bounds one acknowledged script round trip
	EvalTimeout time.Duration `yaml:"evalTimeout"`
}

type FetchConfig struct {
	ViaWebview  bool   `yaml:"viaWebview"` // route scraper requests through the webview bridge
	WindowLabel string `yaml:"windowLabel"`
	UserAgent   string `yaml:"userAgent"`
}

type FSConfig struct {
	Scopes []string `yaml:"scopes"`
}

type StoreConfig struct {
	Name string `yaml:"name"`
}

// Default returns the configuration used when no file or overrides are present
func Default() *Config {
	dataDir := defaultDataDir()
	home, _ := os.UserHomeDir()

	scopes := []string{dataDir}
	if home != "" {
		scopes = append([]string{
			filepath.Join(home, "Documents"),
			filepath.Join(home, "Downloads"),
		}, scopes...)
	}

	return &Config{
		App: AppConfig{
			Environment: "production",
			LogLevel:    "info",
			LogDir:      filepath.Join(dataDir, "logs"),
			DataDir:     dataDir,
		},
		Window: WindowConfig{
			Title:     "Shamela",
			Width:     1024,
			Height:    768,
			MinWidth:  640,
			MinHeight: 480,
		},
		Webview: WebviewConfig{
			EvalTimeout: 5 * time.Second,
		},
		Fetch: FetchConfig{
			ViaWebview:  false,
			WindowLabel: DefaultFetchWindowLabel,
		},
		FS: FSConfig{
			Scopes: scopes,
		},
		Store: StoreConfig{
			Name: "store.json",
		},
		Database: database.ConfigForEnvironment("production", dataDir),
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return AppName
}

// DefaultPath returns the config file location in the user config dir
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), FileName)
}

// Load reads path over the defaults, applies SHAMELA_* overrides and validates.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.LoadFromEnvironment()
	if cfg.Database == nil {
		cfg.Database = database.ConfigForEnvironment(cfg.App.Environment, cfg.App.DataDir)
	}
	cfg.Database.LoadFromEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnvironment applies SHAMELA_* overrides. Database overrides use SHAMELA_DB_*.
func (c *Config) LoadFromEnvironment() {
	if env := os.Getenv("SHAMELA_ENV"); env != "" {
		c.App.Environment = env
	}
	if level := os.Getenv("SHAMELA_LOG_LEVEL"); level != "" {
		c.App.LogLevel = level
	}
	if dir := os.Getenv("SHAMELA_LOG_DIR"); dir != "" {
		c.App.LogDir = dir
	}
	if timeout := os.Getenv("SHAMELA_WEBVIEW_EVAL_TIMEOUT"); timeout != "" {
		if val, err := time.ParseDuration(timeout); err == nil {
			c.Webview.EvalTimeout = val
		}
	}
	if via := os.Getenv("SHAMELA_FETCH_VIA_WEBVIEW"); via != "" {
		if val, err := strconv.ParseBool(via); err == nil {
			c.Fetch.ViaWebview = val
		}
	}
	if label := os.Getenv("SHAMELA_FETCH_WINDOW_LABEL"); label != "" {
		c.Fetch.WindowLabel = label
	}
	if ua := os.Getenv("SHAMELA_FETCH_USER_AGENT"); ua != "" {
		c.Fetch.UserAgent = ua
	}
	if scopes := os.Getenv("SHAMELA_FS_SCOPES"); scopes != "" {
		c.FS.Scopes = filepath.SplitList(scopes)
	}
	if name := os.Getenv("SHAMELA_STORE_NAME"); name != "" {
		c.Store.Name = name
	}
}

// LogLevel returns the parsed app log level
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.App.LogLevel)
	return level
}

// Validate checks every section, including the database config
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "test", "production":
	default:
		return fmt.Errorf("invalid app.environment: %s", c.App.Environment)
	}

	if _, err := logging.ParseLevel(c.App.LogLevel); err != nil {
		return fmt.Errorf("invalid app.logLevel: %w", err)
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.MinWidth > c.Window.Width || c.Window.MinHeight > c.Window.Height {
		return fmt.Errorf("window minimum size exceeds window size")
	}

	if c.Webview.EvalTimeout <= 0 {
		return fmt.Errorf("webview.evalTimeout must be positive, got %s", c.Webview.EvalTimeout)
	}

	if strings.TrimSpace(c.Fetch.WindowLabel) == "" {
		return fmt.Errorf("fetch.windowLabel cannot be empty")
	}
	if c.Fetch.ViaWebview && c.Fetch.WindowLabel == MainWindowLabel {
		return fmt.Errorf("fetch.windowLabel cannot be the app window %q", MainWindowLabel)
	}

	if len(c.FS.Scopes) == 0 {
		return fmt.Errorf("fs.scopes needs at least one root")
	}
	for _, scope := range c.FS.Scopes {
		if strings.TrimSpace(scope) == "" {
			return fmt.Errorf("fs.scopes cannot contain empty roots")
		}
	}

	if c.Store.Name == "" {
		return fmt.Errorf("store.name cannot be empty")
	}

	if c.Database == nil {
		return fmt.Errorf("database config missing")
	}
	return c.Database.Validate()
}
