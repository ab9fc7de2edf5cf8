package sizer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vk/gatesizer/internal/audit"
	"github.com/vk/gatesizer/internal/ctxlog"
	"github.com/vk/gatesizer/internal/naming"
	"github.com/vk/gatesizer/internal/sta"
)

// MissingCellError reports that the inferred fast-grade variant is
// absent from the characterization library. The loop treats it as a
// recoverable library-incomplete condition and terminates partially.
type MissingCellError struct {
	Name string
}

func (e *MissingCellError) Error() string {
	return fmt.Sprintf("missing cell model %s", e.Name)
}

// Mutator swaps selected instances to their fast-grade variants and
// records each swap in the transformation log.
type Mutator struct {
	eng        sta.Engine
	net        sta.Network
	log        *audit.Log
	out        io.Writer
	slowMarker string
	fastMarker string
}

// NewMutator wires a mutator over the engine and an open audit log.
func NewMutator(eng sta.Engine, log *audit.Log, out io.Writer, slowMarker, fastMarker string) *Mutator {
	return &Mutator{
		eng:        eng,
		net:        eng.Network(),
		log:        log,
		out:        out,
		slowMarker: slowMarker,
		fastMarker: fastMarker,
	}
}

// Apply swaps each offender in order. It returns the number of swaps
// applied. A missing fast variant stops the batch with a
// *MissingCellError; swaps already applied stay applied (there is no
// rollback, each swap is individually valid).
func (m *Mutator) Apply(ctx context.Context, offenders []Offender) (int, error) {
	logger := ctxlog.FromContext(ctx)
	applied := 0
	for _, off := range offenders {
		libcell := m.net.LibertyCell(m.net.Cell(off.Inst))
		if libcell == nil {
			// The scorer never selects these; guard anyway.
			logger.Warn("Selected instance has no liberty cell, skipping.", "instance", off.Name)
			continue
		}
		from := libcell.Name()
		to := strings.Replace(from, m.slowMarker, m.fastMarker, 1)
		if to == from {
			// Name carried the marker when scored, so substitution
			// must change it. Skip the instance and keep going.
			logger.Warn("Speed grade substitution had no effect, skipping instance.",
				"instance", off.Name, "cell", from)
			continue
		}

		fmt.Fprintf(m.out, "Resizing instance %s of type %s to type %s\n", off.Name, from, to)

		library := m.net.LibertyLibrary(off.Inst)
		var toCell sta.LibertyCell
		if library != nil {
			if cell, ok := library.FindLibertyCell(to); ok {
				toCell = cell
			}
		}
		if toCell == nil {
			fmt.Fprintf(m.out, "WARNING: Missing cell model: %s\n", to)
			return applied, &MissingCellError{Name: to}
		}

		if err := m.eng.ReplaceCell(ctx, off.Inst, toCell); err != nil {
			return applied, fmt.Errorf("replacing cell of %s: %w", off.Name, err)
		}
		applied++

		scope := m.net.CellName(m.net.Parent(off.Inst))
		instName := naming.DeEscape(m.net.InstanceName(off.Inst))
		if err := m.log.Record(scope, instName, from, to); err != nil {
			return applied, err
		}
	}
	return applied, nil
}
