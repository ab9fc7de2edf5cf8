package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/gatesizer/internal/config"
	"github.com/vk/gatesizer/internal/ctxlog"
	"github.com/vk/gatesizer/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
	profile  *config.Model
}

// NewApp is the constructor for the main application. It returns a
// fully initialized App with its own isolated logger and the sizing
// profile already loaded and validated. Profile failures are fatal
// startup errors and panic; the caller recovers at the process
// boundary.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader, reg *registry.Registry) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var profilePaths []string
	if appConfig.ProfilePath != "" {
		profilePaths = append(profilePaths, appConfig.ProfilePath)
	}

	profile, err := loader.Load(ctx, profilePaths...)
	if err != nil {
		// A failure to load the profile is a fatal startup error.
		panic(fmt.Errorf("failed to load sizing profile: %w", err))
	}
	logger.Debug("Sizing profile loaded.",
		"max_iterations", profile.Sizing.MaxIterations,
		"effort_policy", profile.Sizing.Effort.Policy,
		"scoring", profile.Sizing.Scoring.Function)

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   appConfig,
		profile:  profile,
	}
}

// Profile returns the loaded sizing profile. This is primarily for testing.
func (a *App) Profile() *config.Model {
	return a.profile
}
