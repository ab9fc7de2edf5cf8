package sizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/vk/gatesizer/internal/audit"
	"github.com/vk/gatesizer/internal/config"
	"github.com/vk/gatesizer/internal/ctxlog"
	"github.com/vk/gatesizer/internal/naming"
	"github.com/vk/gatesizer/internal/sta"
)

// Status is the terminal state of an optimization run.
type Status int

const (
	StatusRunning Status = iota

	// StatusOK: no violations remain.
	StatusOK

	// StatusPartial: violations remain but nothing is left to swap.
	StatusPartial

	// StatusUnfixable: the WNS path holds no slow-grade cell.
	StatusUnfixable

	// StatusBudgetExhausted: max iterations reached with residual
	// violations.
	StatusBudgetExhausted

	// StatusLibraryIncomplete: a fast-grade variant was missing from
	// the library.
	StatusLibraryIncomplete
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	case StatusUnfixable:
		return "unfixable"
	case StatusBudgetExhausted:
		return "budget-exhausted"
	case StatusLibraryIncomplete:
		return "library-incomplete"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result summarizes a finished run. FinalWNS is in seconds, zero or
// negative.
type Result struct {
	Status     Status
	FinalWNS   float64
	Iterations int
	Swaps      int
}

// previousWNSSentinel marks "no previous iteration"; any observed WNS
// is negative.
const previousWNSSentinel = 1.0

// Controller owns the optimization loop. It is single-threaded; the
// only blocking points are the timer query and the cell swaps.
type Controller struct {
	eng       sta.Engine
	net       sta.Network
	cfg       config.Sizing
	policy    EffortPolicy
	scorer    *Scorer
	out       io.Writer
	auditPath string
}

// New wires a controller from a validated profile. Console output for
// downstream tooling goes to out; the transformation log is written
// under workdir.
func New(eng sta.Engine, model *config.Model, workdir string, out io.Writer) *Controller {
	s := model.Sizing
	net := eng.Network()
	return &Controller{
		eng:       eng,
		net:       net,
		cfg:       s,
		policy:    NewEffortPolicy(s),
		scorer:    NewScorer(net, s.SlowMarker, WeightForConfig(s.Scoring)),
		out:       out,
		auditPath: filepath.Join(workdir, "data", "resized_cells.csv"),
	}
}

// AuditPath returns where the transformation log is written.
func (c *Controller) AuditPath() string { return c.auditPath }

// Run drives the loop to a terminal state. The context is honored
// between iterations only; a partial batch leaves the netlist in a
// well-defined state since each swap is individually valid. The audit
// log is closed on every exit path.
func (c *Controller) Run(ctx context.Context) (result *Result, err error) {
	logger := ctxlog.FromContext(ctx)

	log, err := audit.Open(c.auditPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := log.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	mutator := NewMutator(c.eng, log, c.out, c.cfg.SlowMarker, c.cfg.FastMarker)

	previousWNS := previousWNSSentinel
	iteration := 0
	totalSwaps := 0

	for {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		levers := c.policy.Levers()
		fmt.Fprintln(c.out, "Running timer...")
		ends, qerr := c.eng.FindPathEnds(ctx, c.query(levers.PathsPerGroup))
		if qerr != nil {
			return nil, fmt.Errorf("querying path ends: %w", qerr)
		}
		logger.Debug("Timer query returned.",
			"paths", len(ends), "paths_per_group", levers.PathsPerGroup)

		if len(ends) == 0 {
			c.printDone()
			return &Result{Status: StatusOK, Iterations: iteration, Swaps: totalSwaps}, nil
		}

		scored := c.scorer.Score(ctx, ends)
		logger.Debug("Paths scored.", "candidates", len(scored.Scores), "wns", scored.WNS)

		if scored.WNS < 0 && !scored.WNSFixable {
			c.reportUnfixable(scored)
			return &Result{Status: StatusUnfixable, FinalWNS: scored.WNS, Iterations: iteration, Swaps: totalSwaps}, nil
		}

		if len(scored.Scores) == 0 {
			if scored.WNS == 0 {
				c.printDone()
				return &Result{Status: StatusOK, Iterations: iteration, Swaps: totalSwaps}, nil
			}
			c.printPartial(scored.WNS)
			return &Result{Status: StatusPartial, FinalWNS: scored.WNS, Iterations: iteration, Swaps: totalSwaps}, nil
		}

		offenders := SelectTop(c.net, scored.Scores, levers.SwapsPerIter)
		applied, merr := mutator.Apply(ctx, offenders)
		totalSwaps += applied
		if merr != nil {
			var missing *MissingCellError
			if errors.As(merr, &missing) {
				logger.Warn("Library is missing a fast variant, stopping.", "cell", missing.Name)
				c.printPartial(scored.WNS)
				return &Result{Status: StatusLibraryIncomplete, FinalWNS: scored.WNS, Iterations: iteration, Swaps: totalSwaps}, nil
			}
			return nil, merr
		}

		iteration++
		if iteration > 1 {
			deltaPS := math.Abs(math.Abs(scored.WNS)-math.Abs(previousWNS)) * 1e12
			fmt.Fprintf(c.out, "Delta WNS: %gps\n", deltaPS)
		}

		c.adaptEffort(iteration, scored.WNS, previousWNS)

		fmt.Fprintf(c.out, "Iteration %d of %d\n", iteration, c.cfg.MaxIterations)
		if iteration >= c.cfg.MaxIterations {
			c.printPartial(scored.WNS)
			fmt.Fprintln(c.out, "WARNING: Cannot meet timing constraints!")
			return &Result{Status: StatusBudgetExhausted, FinalWNS: scored.WNS, Iterations: iteration, Swaps: totalSwaps}, nil
		}
		fmt.Fprintf(c.out, "Current WNS: %s\n", formatPS(scored.WNS))

		previousWNS = scored.WNS
	}
}

// adaptEffort lets the policy observe the iteration and reports lever
// escalations on the console.
func (c *Controller) adaptEffort(iteration int, wns, previousWNS float64) {
	before := c.policy.Levers()
	c.policy.Observe(iteration, wns, previousWNS)
	after := c.policy.Levers()

	if after.SwapsPerIter > before.SwapsPerIter {
		fmt.Fprintf(c.out, "Increasing concurrent resizings to: %d\n", after.SwapsPerIter)
	}
	if after.PathsPerGroup > before.PathsPerGroup {
		fmt.Fprintf(c.out, "Analysing %d paths\n", after.PathsPerGroup)
	}
}

// query builds the timer request for one iteration: worst setup paths
// only, violating slacks only, deduplicated on pin identity.
func (c *Controller) query(pathsPerGroup int) sta.PathQuery {
	return sta.PathQuery{
		MinSlack:      math.Inf(-1),
		MaxSlack:      0,
		GroupCount:    pathsPerGroup,
		EndpointCount: pathsPerGroup,
		UniquePins:    true,
		MinMax:        sta.MinMaxMax,
		Setup:         true,
	}
}

// reportUnfixable dumps the WNS path for user review, one line per
// unique instance, then declares partial success. The dump is the only
// lead the user gets: the path cannot be improved by sizing.
func (c *Controller) reportUnfixable(scored *ScoreResult) {
	fmt.Fprintf(c.out, "Final WNS: %s\n", formatPS(scored.WNS))
	fmt.Fprintln(c.out, "WARNING: WNS Path does not contain any resizable cells!")

	reported := make(map[string]bool)
	for p := scored.WNSPath; p != nil; {
		pin := p.Pin()
		inst := c.net.Instance(pin)
		name := naming.DeEscape(c.net.InstanceName(inst))
		cellName := ""
		if libcell := c.net.LibertyCell(c.net.Cell(inst)); libcell != nil {
			cellName = libcell.Name()
		}
		if name != "" && !reported[name] {
			fmt.Fprintf(c.out, "WNS Path: %s (%s)\n", name, cellName)
			reported[name] = true
		}
		prev, _, ok := p.Prev()
		if !ok {
			break
		}
		p = prev
	}

	fmt.Fprintln(c.out, "Timing optimization partially done!")
}

func (c *Controller) printDone() {
	fmt.Fprintln(c.out, "Final WNS: 0")
	fmt.Fprintln(c.out, "Timing optimization done!")
}

func (c *Controller) printPartial(wns float64) {
	fmt.Fprintf(c.out, "Final WNS: %s\n", formatPS(wns))
	fmt.Fprintln(c.out, "Timing optimization partially done!")
}

// formatPS renders a slack for the console: picoseconds of violation
// magnitude, or a bare 0 when timing is met.
func formatPS(wns float64) string {
	if wns == 0 {
		return "0"
	}
	return fmt.Sprintf("%gps", -wns*1e12)
}
