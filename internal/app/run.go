package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/gatesizer/internal/ctxlog"
	"github.com/vk/gatesizer/internal/sizer"
)

// Run executes one optimization run. Every terminal state of the loop,
// partial outcomes included, returns nil: status is communicated
// through the console report, not the exit code.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	factory, ok := a.registry.Resolve(a.config.EngineName)
	if !ok {
		return fmt.Errorf("unknown engine %q; registered engines: %s",
			a.config.EngineName, strings.Join(a.registry.Names(), ", "))
	}
	eng, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("initializing engine %q: %w", a.config.EngineName, err)
	}
	a.logger.Debug("Engine resolved.", "engine", a.config.EngineName)

	controller := sizer.New(eng, a.profile, a.config.Workdir, a.outW)
	a.logger.Info("Starting timing optimization.",
		"engine", a.config.EngineName, "workdir", a.config.Workdir)

	result, err := controller.Run(ctx)
	if err != nil {
		return fmt.Errorf("sizing run failed: %w", err)
	}

	a.logger.Info("Timing optimization finished.",
		"status", result.Status.String(),
		"iterations", result.Iterations,
		"swaps", result.Swaps,
		"final_wns_ps", -result.FinalWNS*1e12)
	return nil
}
