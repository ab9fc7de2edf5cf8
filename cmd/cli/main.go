package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/gatesizer/internal/app"
	"github.com/vk/gatesizer/internal/cli"
	"github.com/vk/gatesizer/internal/hcl"
	"github.com/vk/gatesizer/internal/registry"
	"github.com/vk/gatesizer/internal/sta"
	"github.com/vk/gatesizer/internal/sta/stafake"
)

// main is the entrypoint for the gatesizer application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and
// error handling.
func run(outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, logW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors, so we recover here to
	// provide a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(logW, "A critical startup error occurred: %v\n", r)
			os.Exit(1)
		}
	}()

	// Engines are linked in, not loaded: embedders add theirs here.
	// The in-memory demo engine ships by default.
	reg := registry.New()
	reg.Register("fake", func(ctx context.Context) (sta.Engine, error) {
		return stafake.Demo(), nil
	})

	loader := hcl.NewLoader()
	sizerApp := app.NewApp(outW, logW, appConfig, loader, reg)

	return sizerApp.Run(context.Background())
}
