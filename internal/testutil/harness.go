// Package testutil provides the integration harness for exercising the
// full sizing loop against the in-memory engine.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/gatesizer/internal/config"
	"github.com/vk/gatesizer/internal/ctxlog"
	"github.com/vk/gatesizer/internal/sizer"
	"github.com/vk/gatesizer/internal/sta/stafake"
)

// SizingRun holds the outcomes of one harness run.
type SizingRun struct {
	Result *sizer.Result
	Err    error

	// Output is the console report, line-addressable via Lines.
	Output string

	// AuditLines are the transformation log lines, header included.
	AuditLines []string
}

// Lines splits the console output, dropping the trailing empty split.
func (r *SizingRun) Lines() []string {
	out := strings.TrimSuffix(r.Output, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// RunSizing drives the controller against the given engine in a fresh
// temporary workdir. mutate may adjust the default profile; nil keeps
// the defaults. The run's logs go through a debug-level text logger
// into the discard writer so log output never pollutes the report.
func RunSizing(t *testing.T, eng *stafake.Engine, mutate func(*config.Model)) *SizingRun {
	t.Helper()

	model := config.Default()
	if mutate != nil {
		mutate(model)
	}
	require.NoError(t, model.Validate())

	workdir := t.TempDir()
	out := &SafeBuffer{}
	ctrl := sizer.New(eng, model, workdir, out)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	result, err := ctrl.Run(ctx)

	run := &SizingRun{Result: result, Err: err, Output: out.String()}
	if content, rerr := os.ReadFile(ctrl.AuditPath()); rerr == nil {
		run.AuditLines = strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	}
	return run
}
