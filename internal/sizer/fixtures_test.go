package sizer

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/gatesizer/internal/ctxlog"
	"github.com/vk/gatesizer/internal/sta/stafake"
)

// quietCtx returns a context whose logger discards everything, so unit
// tests don't interleave debug records with their own output.
func quietCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// chainFixture is a netlist with one registered path through a chain
// of operator instances feeding a capture register.
type chainFixture struct {
	eng *stafake.Engine
	lib *stafake.Library
	top *stafake.Instance
}

func newChainFixture() *chainFixture {
	eng := stafake.NewEngine()
	lib := eng.AddLibrary("ops")
	top := eng.AddModule("", nil, "chip_top")
	return &chainFixture{eng: eng, lib: lib, top: top}
}

// addOp creates a leaf instance under a module, bound to cellName with
// the given speed factor. The cell is registered on first use.
func (f *chainFixture) addOp(parent *stafake.Instance, instName, cellName string, speed float64) *stafake.Instance {
	cell, ok := f.lib.FindLibertyCell(cellName)
	if !ok {
		cell = f.lib.AddCell(cellName, speed)
	}
	return f.eng.AddInstance(instName, parent, cell.(*stafake.LibCell))
}
