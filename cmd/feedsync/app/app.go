// Package app provides the application context and dependency management for
// the feedsync CLI: configuration loading, logger setup, and lazy creation of
// the feedsync instance shared by the subcommands.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/openmobility/feedsync"
)

// App represents the feedsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Feedsync instance (lazy-initialized, singleton)
	mu sync.Mutex
	fs feedsync.Feedsync
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version string.
func (a *App) Version() string { return a.version }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Feedsync returns the feedsync instance, creating it lazily if needed.
func (a *App) Feedsync() (feedsync.Feedsync, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fs != nil {
		return a.fs, nil
	}

	fs, err := feedsync.New(a.buildOptions()...)
	if err != nil {
		return nil, err
	}
	a.fs = fs
	return fs, nil
}

// buildOptions constructs feedsync options from the app configuration.
func (a *App) buildOptions() []feedsync.Option {
	opts := []feedsync.Option{
		feedsync.WithDirectory(a.config.DirectoryRESTURL, a.config.DirectoryGraphQLURL, a.config.DirectoryAPIKey),
		feedsync.WithStore(a.config.StoreURL, a.config.StorageDir),
		feedsync.WithCountry(a.config.Country),
		feedsync.WithExecutorBinary(a.config.ExecutorBinary),
		feedsync.WithExportDir(a.config.ExportDir),
	}
	if a.config.CatalogURL != "" {
		opts = append(opts, feedsync.WithCatalogURL(a.config.CatalogURL))
	}
	if a.config.RegistryPath != "" {
		opts = append(opts, feedsync.WithRegistryPath(a.config.RegistryPath))
	}
	if a.config.LicenseOverrides != "" {
		opts = append(opts, feedsync.WithLicenseOverrides(a.config.LicenseOverrides))
	}
	return opts
}

// ContextWithSignals creates a context that is cancelled when the application
// receives an interrupt or termination signal.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ExitOnError prints an error and exits with status 1. Meant to be used in
// main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithFeedsync sets a custom feedsync instance (useful for testing).
func WithFeedsync(fs feedsync.Feedsync) Option {
	return func(a *App) error {
		a.fs = fs
		return nil
	}
}
