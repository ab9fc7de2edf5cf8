package stafake

// Demo builds a small self-contained engine with a handful of
// violating paths whose slow cells can all be upgraded. Running the
// controller against it converges to a clean timing signoff, which
// makes it useful for trying the CLI without a real timer.
func Demo() *Engine {
	eng := NewEngine()
	lib := eng.AddLibrary("ops")

	addSlow := lib.AddCell("op_add_sp0_w8", 1.0)
	lib.AddCell("op_add_sp1_w8", 0.4)
	mulSlow := lib.AddCell("op_mul_sp0_w8", 1.0)
	lib.AddCell("op_mul_sp1_w8", 0.4)

	top := eng.AddModule("", nil, "demo_top")
	alu := eng.AddModule("alu", top, "demo_alu")

	add0 := eng.AddInstance("add0", alu, addSlow)
	mul0 := eng.AddInstance("mul0", alu, mulSlow)
	outReg := eng.AddInstance("out_reg", alu, nil)

	addY := eng.AddPin(add0, "Y")
	mulY := eng.AddPin(mul0, "Y")
	regD := eng.AddPin(outReg, "D")

	eng.AddPath(PathSpec{
		Group:    "clk",
		Required: 1.5e-9,
		Pins:     []*Pin{addY, mulY, regD},
		Delays:   []float64{0, 1.2e-9, 0.6e-9},
	})
	eng.AddPath(PathSpec{
		Group:    "clk",
		Required: 1.0e-9,
		Pins:     []*Pin{addY, mulY},
		Delays:   []float64{0, 1.3e-9},
	})
	return eng
}
