package sizer_test

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gatesizer/internal/config"
	"github.com/vk/gatesizer/internal/sizer"
	"github.com/vk/gatesizer/internal/sta/stafake"
	"github.com/vk/gatesizer/internal/testutil"
)

// TestRunNoViolations: the first timer query returns nothing, the run
// is a clean signoff and the audit log holds only its header.
func TestRunNoViolations(t *testing.T) {
	eng := stafake.NewEngine()

	run := testutil.RunSizing(t, eng, nil)
	require.NoError(t, run.Err)
	assert.Equal(t, sizer.StatusOK, run.Result.Status)
	assert.Equal(t, 0, run.Result.Iterations)
	assert.Equal(t, 0, run.Result.Swaps)

	assert.Equal(t, []string{
		"Running timer...",
		"Final WNS: 0",
		"Timing optimization done!",
	}, run.Lines())
	assert.Equal(t, []string{"Scope,Instance,From cell,To cell"}, run.AuditLines)
}

// TestRunUnfixablePath: one violating path carrying only fast-grade
// cells terminates with the WNS path dump and no swaps.
func TestRunUnfixablePath(t *testing.T) {
	eng := stafake.NewEngine()
	lib := eng.AddLibrary("ops")
	fast := lib.AddCell("op_mul_sp1_w8", 0.4)

	top := eng.AddModule("", nil, "chip_top")
	src := eng.AddInstance("src_reg", top, nil)
	mul := eng.AddInstance("u_mul", top, fast)
	reg := eng.AddInstance("out_reg", top, nil)

	srcQ := eng.AddPin(src, "Q")
	mulY := eng.AddPin(mul, "Y")
	regD := eng.AddPin(reg, "D")

	eng.AddPath(stafake.PathSpec{
		Group:    "clk",
		Required: 0.1e-9,
		Pins:     []*stafake.Pin{srcQ, mulY, regD},
		Delays:   []float64{0, 0.4e-9, 0.2e-9},
	})

	run := testutil.RunSizing(t, eng, nil)
	require.NoError(t, run.Err)
	assert.Equal(t, sizer.StatusUnfixable, run.Result.Status)
	assert.Equal(t, 0, run.Result.Swaps)
	assert.InDelta(t, -0.26e-9, run.Result.FinalWNS, 1e-15)

	// Arrival is 0.4*0.4 + 0.2 = 0.36ns against 0.1ns required.
	wns := 0.1e-9 - (0.4e-9*0.4 + 0.2e-9)
	assert.Equal(t, []string{
		"Running timer...",
		wnsLine("Final WNS", wns),
		"WARNING: WNS Path does not contain any resizable cells!",
		"WNS Path: out_reg ()",
		"WNS Path: u_mul (op_mul_sp1_w8)",
		"WNS Path: src_reg ()",
		"Timing optimization partially done!",
	}, run.Lines())
	assert.Equal(t, []string{"Scope,Instance,From cell,To cell"}, run.AuditLines)

	// The engine was never asked to swap anything.
	assert.Empty(t, eng.Swaps())
}

// TestRunSingleFixableOffender: one slow cell on one violating path is
// swapped, after which timing is clean.
func TestRunSingleFixableOffender(t *testing.T) {
	eng := stafake.NewEngine()
	lib := eng.AddLibrary("ops")
	slow := lib.AddCell("op_add_sp0_w8", 1.0)
	lib.AddCell("op_add_sp1_w8", 0.4)

	top := eng.AddModule("", nil, "chip_top")
	alu := eng.AddModule("alu", top, "alu_core")
	src := eng.AddInstance("src_reg", alu, nil)
	add := eng.AddInstance(`u1\/add`, alu, slow)
	reg := eng.AddInstance("out_reg", alu, nil)

	srcQ := eng.AddPin(src, "Q")
	addY := eng.AddPin(add, "Y")
	regD := eng.AddPin(reg, "D")

	eng.AddPath(stafake.PathSpec{
		Group:    "clk",
		Required: 0.8e-9,
		Pins:     []*stafake.Pin{srcQ, addY, regD},
		Delays:   []float64{0, 1.0e-9, 0.2e-9},
	})

	run := testutil.RunSizing(t, eng, nil)
	require.NoError(t, run.Err)
	assert.Equal(t, sizer.StatusOK, run.Result.Status)
	assert.Equal(t, 1, run.Result.Iterations)
	assert.Equal(t, 1, run.Result.Swaps)

	require.Len(t, eng.Swaps(), 1)
	assert.Equal(t, stafake.Swap{Instance: `u1\/add`, From: "op_add_sp0_w8", To: "op_add_sp1_w8"}, eng.Swaps()[0])

	wns := 0.8e-9 - (1.0e-9 + 0.2e-9)
	assert.Equal(t, []string{
		"Running timer...",
		"Resizing instance alu.u1/add of type op_add_sp0_w8 to type op_add_sp1_w8",
		"Iteration 1 of 200",
		wnsLine("Current WNS", wns),
		"Running timer...",
		"Final WNS: 0",
		"Timing optimization done!",
	}, run.Lines())

	require.Len(t, run.AuditLines, 2)
	assert.Equal(t, `"alu_core",u1/add,op_add_sp0_w8,op_add_sp1_w8`, run.AuditLines[1])
}

// TestRunTopKSelection: with a swap budget of two, only the two
// highest-scoring offenders are touched, highest first.
func TestRunTopKSelection(t *testing.T) {
	eng := stafake.NewEngine()
	lib := eng.AddLibrary("ops")
	aCell := lib.AddCell("op_a_sp0_w8", 1.0)
	lib.AddCell("op_a_sp1_w8", 0.4)
	bCell := lib.AddCell("op_b_sp0_w8", 1.0)
	lib.AddCell("op_b_sp1_w8", 0.4)
	cCell := lib.AddCell("op_c_sp0_w8", 1.0)
	lib.AddCell("op_c_sp1_w8", 0.4)

	top := eng.AddModule("", nil, "chip_top")
	a := eng.AddInstance("u_a", top, aCell)
	b := eng.AddInstance("u_b", top, bCell)
	c := eng.AddInstance("u_c", top, cCell)

	aY := eng.AddPin(a, "Y")
	bY := eng.AddPin(b, "Y")
	cY := eng.AddPin(c, "Y")

	endpoints := make([]*stafake.Pin, 4)
	for i := range endpoints {
		reg := eng.AddInstance("reg_"+string(rune('0'+i)), top, nil)
		endpoints[i] = eng.AddPin(reg, "D")
	}
	srcQ := eng.AddPin(eng.AddInstance("src_reg", top, nil), "Q")

	// A accumulates over two paths; B and C see one path each.
	eng.AddPath(stafake.PathSpec{Group: "clk", Required: 0.1e-9,
		Pins: []*stafake.Pin{srcQ, aY, endpoints[0]}, Delays: []float64{0, 2.0e-9, 0.1e-9}})
	eng.AddPath(stafake.PathSpec{Group: "clk", Required: 0.1e-9,
		Pins: []*stafake.Pin{srcQ, aY, endpoints[1]}, Delays: []float64{0, 2.0e-9, 0.1e-9}})
	eng.AddPath(stafake.PathSpec{Group: "clk", Required: 0.1e-9,
		Pins: []*stafake.Pin{srcQ, bY, endpoints[2]}, Delays: []float64{0, 2.2e-9, 0.1e-9}})
	eng.AddPath(stafake.PathSpec{Group: "clk", Required: 0.1e-9,
		Pins: []*stafake.Pin{srcQ, cY, endpoints[3]}, Delays: []float64{0, 1.5e-9, 0.1e-9}})

	run := testutil.RunSizing(t, eng, func(m *config.Model) {
		m.Sizing.MaxIterations = 1
		m.Sizing.MinSwapsPerIter = 2
		m.Sizing.MaxSwapsPerIter = 2
	})
	require.NoError(t, run.Err)
	assert.Equal(t, sizer.StatusBudgetExhausted, run.Result.Status)
	assert.Equal(t, 2, run.Result.Swaps)

	swaps := eng.Swaps()
	require.Len(t, swaps, 2)
	assert.Equal(t, "u_a", swaps[0].Instance)
	assert.Equal(t, "u_b", swaps[1].Instance)

	lines := run.Lines()
	assert.Equal(t, "WARNING: Cannot meet timing constraints!", lines[len(lines)-1])
}

// TestRunLibraryIncomplete: a slow cell without a fast variant stops
// the run as partial with no audit record for the failed swap.
func TestRunLibraryIncomplete(t *testing.T) {
	eng := stafake.NewEngine()
	lib := eng.AddLibrary("ops")
	foo := lib.AddCell("foo_sp0_bar", 1.0)

	top := eng.AddModule("", nil, "chip_top")
	src := eng.AddInstance("src_reg", top, nil)
	inst := eng.AddInstance("u_foo", top, foo)
	reg := eng.AddInstance("out_reg", top, nil)

	srcQ := eng.AddPin(src, "Q")
	fooY := eng.AddPin(inst, "Y")
	regD := eng.AddPin(reg, "D")

	eng.AddPath(stafake.PathSpec{
		Group:    "clk",
		Required: 0.8e-9,
		Pins:     []*stafake.Pin{srcQ, fooY, regD},
		Delays:   []float64{0, 1.0e-9, 0.2e-9},
	})

	run := testutil.RunSizing(t, eng, nil)
	require.NoError(t, run.Err)
	assert.Equal(t, sizer.StatusLibraryIncomplete, run.Result.Status)
	assert.Equal(t, 0, run.Result.Swaps)
	assert.InDelta(t, -0.4e-9, run.Result.FinalWNS, 1e-15)

	wns := 0.8e-9 - (1.0e-9 + 0.2e-9)
	assert.Contains(t, run.Output, "WARNING: Missing cell model: foo_sp1_bar\n")
	assert.Contains(t, run.Output, wnsLine("Final WNS", wns)+"\n")
	assert.Contains(t, run.Output, "Timing optimization partially done!\n")
	assert.Equal(t, []string{"Scope,Instance,From cell,To cell"}, run.AuditLines)
}

// TestRunBudgetExhausted: a swap that helps but not enough, with a
// budget of one iteration.
func TestRunBudgetExhausted(t *testing.T) {
	eng := stafake.NewEngine()
	lib := eng.AddLibrary("ops")
	slow := lib.AddCell("op_add_sp0_w8", 1.0)
	lib.AddCell("op_add_sp1_w8", 0.9)

	top := eng.AddModule("", nil, "chip_top")
	src := eng.AddInstance("src_reg", top, nil)
	add := eng.AddInstance("u_add", top, slow)
	reg := eng.AddInstance("out_reg", top, nil)

	srcQ := eng.AddPin(src, "Q")
	addY := eng.AddPin(add, "Y")
	regD := eng.AddPin(reg, "D")

	eng.AddPath(stafake.PathSpec{
		Group:    "clk",
		Required: 0.1e-9,
		Pins:     []*stafake.Pin{srcQ, addY, regD},
		Delays:   []float64{0, 1.0e-9, 0.2e-9},
	})

	run := testutil.RunSizing(t, eng, func(m *config.Model) {
		m.Sizing.MaxIterations = 1
	})
	require.NoError(t, run.Err)
	assert.Equal(t, sizer.StatusBudgetExhausted, run.Result.Status)
	assert.Equal(t, 1, run.Result.Iterations)
	assert.Equal(t, 1, run.Result.Swaps)

	wns := 0.1e-9 - (1.0e-9 + 0.2e-9)
	lines := run.Lines()
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "Iteration 1 of 1", lines[len(lines)-4])
	assert.Equal(t, wnsLine("Final WNS", wns), lines[len(lines)-3])
	assert.Equal(t, "Timing optimization partially done!", lines[len(lines)-2])
	assert.Equal(t, "WARNING: Cannot meet timing constraints!", lines[len(lines)-1])

	require.Len(t, run.AuditLines, 2)
}

// TestRunDemoConverges: the shipped demo netlist optimizes to a clean
// signoff and the reported WNS never degrades between iterations.
func TestRunDemoConverges(t *testing.T) {
	run := testutil.RunSizing(t, stafake.Demo(), nil)
	require.NoError(t, run.Err)
	assert.Equal(t, sizer.StatusOK, run.Result.Status)
	assert.Positive(t, run.Result.Swaps)

	var prev float64
	first := true
	for _, line := range run.Lines() {
		if !strings.HasPrefix(line, "Current WNS: ") {
			continue
		}
		ps, err := parseWNSLine(line)
		require.NoError(t, err)
		if !first {
			assert.LessOrEqual(t, ps, prev, "WNS degraded: %q", line)
		}
		prev = ps
		first = false
	}
}

// TestRunHonorsCancellation: a cancelled context stops the loop before
// the next iteration, leaving a valid header-only audit log behind.
func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := config.Default()
	ctrl := sizer.New(stafake.Demo(), model, t.TempDir(), &testutil.SafeBuffer{})
	_, err := ctrl.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// wnsLine renders a console WNS line the way the controller formats
// it, from the same arithmetic the fake engine performs, so float
// rounding can never diverge between expectation and output.
func wnsLine(prefix string, wns float64) string {
	return fmt.Sprintf("%s: %gps", prefix, -wns*1e12)
}

// parseWNSLine pulls the picosecond value out of a "Current WNS: <n>ps" line.
func parseWNSLine(line string) (float64, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(line, "Current WNS: "), "ps")
	return strconv.ParseFloat(trimmed, 64)
}
