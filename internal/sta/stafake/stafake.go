// Package stafake is an in-memory implementation of the sta interfaces
// for tests and for embedders that want a self-contained engine to
// experiment with. Slacks are recomputed from the current cell bindings
// on every query, so cell swaps genuinely improve timing.
package stafake

import (
	"context"

	"github.com/vk/gatesizer/internal/sta"
)

// LibCell is a characterized cell. Speed scales the base intrinsic
// delay of every arc entering a pin of an instance bound to this cell;
// a faster grade carries a smaller factor.
type LibCell struct {
	name  string
	speed float64
	lib   *Library
}

// Name implements sta.LibertyCell.
func (c *LibCell) Name() string { return c.name }

// Library is a named collection of characterized cells.
type Library struct {
	name  string
	cells map[string]*LibCell
}

// AddCell registers a cell with the given speed factor and returns it.
func (l *Library) AddCell(name string, speed float64) *LibCell {
	c := &LibCell{name: name, speed: speed, lib: l}
	l.cells[name] = c
	return c
}

// FindLibertyCell implements sta.Library.
func (l *Library) FindLibertyCell(name string) (sta.LibertyCell, bool) {
	c, ok := l.cells[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// Instance is a netlist instance. Leaf instances are bound to a
// LibCell; hierarchy instances carry only a module cell name.
type Instance struct {
	name    string
	parent  *Instance
	cell    *LibCell
	modCell string
}

// Pin belongs to exactly one instance.
type Pin struct {
	name string
	inst *Instance
}

// PathSpec declares one timing path for the fake timer.
//
// Pins are ordered startpoint to endpoint. Delays[i] is the base
// intrinsic delay in seconds of the arc entering Pins[i]; Delays[0] is
// ignored since the startpoint has no predecessor. The effective delay
// of an arc is its base delay multiplied by the speed factor of the
// cell currently bound to the pin's instance.
type PathSpec struct {
	Group    string
	Required float64
	Pins     []*Pin
	Delays   []float64
}

// Swap records one ReplaceCell call, for assertions.
type Swap struct {
	Instance string
	From     string
	To       string
}

// Engine is the fake timer. It implements sta.Engine.
type Engine struct {
	libs  map[string]*Library
	paths []*PathSpec
	swaps []Swap
}

// NewEngine returns an empty fake engine.
func NewEngine() *Engine {
	return &Engine{libs: make(map[string]*Library)}
}

// AddLibrary registers a characterization library.
func (e *Engine) AddLibrary(name string) *Library {
	l := &Library{name: name, cells: make(map[string]*LibCell)}
	e.libs[name] = l
	return l
}

// AddInstance creates a leaf instance bound to the given cell. A nil
// cell creates an unbound instance (a port or black box).
func (e *Engine) AddInstance(name string, parent *Instance, cell *LibCell) *Instance {
	return &Instance{name: name, parent: parent, cell: cell}
}

// AddModule creates a hierarchy instance bound to a module cell name
// with no liberty data behind it.
func (e *Engine) AddModule(name string, parent *Instance, moduleCell string) *Instance {
	return &Instance{name: name, parent: parent, modCell: moduleCell}
}

// AddPin creates a pin on the given instance.
func (e *Engine) AddPin(inst *Instance, name string) *Pin {
	return &Pin{name: name, inst: inst}
}

// AddPath declares a timing path. Panics if the spec is malformed,
// since that is a test-fixture bug.
func (e *Engine) AddPath(spec PathSpec) {
	if len(spec.Pins) == 0 || len(spec.Delays) != len(spec.Pins) {
		panic("stafake: path spec needs one delay per pin")
	}
	p := spec
	e.paths = append(e.paths, &p)
}

// Swaps returns every ReplaceCell call seen so far, in order.
func (e *Engine) Swaps() []Swap { return e.swaps }

// arrival sums the effective arc delays of a path under the current
// cell bindings.
func (e *Engine) arrival(p *PathSpec) float64 {
	var sum float64
	for i := 1; i < len(p.Pins); i++ {
		sum += e.arcDelay(p, i)
	}
	return sum
}

func (e *Engine) arcDelay(p *PathSpec, i int) float64 {
	speed := 1.0
	if cell := p.Pins[i].inst.cell; cell != nil {
		speed = cell.speed
	}
	return p.Delays[i] * speed
}

// FindPathEnds implements sta.Engine. Paths are returned in
// declaration order, filtered to the query's slack window, capped per
// timing group and deduplicated on endpoint pin.
func (e *Engine) FindPathEnds(ctx context.Context, q sta.PathQuery) ([]sta.PathEnd, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	perGroup := make(map[string]int)
	seenPins := make(map[*Pin]bool)
	var ends []sta.PathEnd
	for _, p := range e.paths {
		slack := p.Required - e.arrival(p)
		if slack < q.MinSlack || slack > q.MaxSlack {
			continue
		}
		if q.GroupCount > 0 && perGroup[p.Group] >= q.GroupCount {
			continue
		}
		endpoint := p.Pins[len(p.Pins)-1]
		if q.UniquePins && seenPins[endpoint] {
			continue
		}
		perGroup[p.Group]++
		seenPins[endpoint] = true
		ends = append(ends, &pathEnd{eng: e, def: p, slack: slack})
	}
	return ends, nil
}

// ReplaceCell implements sta.Engine.
func (e *Engine) ReplaceCell(ctx context.Context, inst sta.Instance, to sta.LibertyCell) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in := inst.(*Instance)
	cell := to.(*LibCell)
	from := ""
	if in.cell != nil {
		from = in.cell.name
	}
	in.cell = cell
	e.swaps = append(e.swaps, Swap{Instance: in.name, From: from, To: cell.name})
	return nil
}

// Network implements sta.Engine.
func (e *Engine) Network() sta.Network { return &network{} }

type pathEnd struct {
	eng   *Engine
	def   *PathSpec
	slack float64
}

func (pe *pathEnd) Path() sta.Path {
	return &pathPoint{eng: pe.eng, def: pe.def, idx: len(pe.def.Pins) - 1}
}

func (pe *pathEnd) Slack() float64 { return pe.slack }

// pathPoint walks a PathSpec backward from the endpoint.
type pathPoint struct {
	eng *Engine
	def *PathSpec
	idx int
}

func (p *pathPoint) Pin() sta.Pin { return p.def.Pins[p.idx] }

func (p *pathPoint) Prev() (sta.Path, sta.Arc, bool) {
	if p.idx == 0 {
		return nil, nil, false
	}
	arc := &arc{delay: p.eng.arcDelay(p.def, p.idx)}
	return &pathPoint{eng: p.eng, def: p.def, idx: p.idx - 1}, arc, true
}

type arc struct {
	delay float64
}

func (a *arc) IntrinsicDelay() float64 { return a.delay }

// network implements sta.Network over the fake handle types.
type network struct{}

func (n *network) Instance(pin sta.Pin) sta.Instance {
	p, ok := pin.(*Pin)
	if !ok || p == nil {
		return nil
	}
	return p.inst
}

func (n *network) Cell(inst sta.Instance) sta.Cell {
	in, ok := inst.(*Instance)
	if !ok || in == nil {
		return nil
	}
	if in.cell == nil && in.modCell == "" {
		return nil
	}
	return &cellRef{inst: in}
}

func (n *network) LibertyCell(cell sta.Cell) sta.LibertyCell {
	ref, ok := cell.(*cellRef)
	if !ok || ref == nil || ref.inst.cell == nil {
		return nil
	}
	return ref.inst.cell
}

func (n *network) LibertyLibrary(inst sta.Instance) sta.Library {
	in, ok := inst.(*Instance)
	if !ok || in == nil || in.cell == nil {
		return nil
	}
	return in.cell.lib
}

func (n *network) Parent(inst sta.Instance) sta.Instance {
	in, ok := inst.(*Instance)
	if !ok || in == nil || in.parent == nil {
		return nil
	}
	return in.parent
}

func (n *network) InstanceName(inst sta.Instance) string {
	in, ok := inst.(*Instance)
	if !ok || in == nil {
		return ""
	}
	return in.name
}

func (n *network) CellName(inst sta.Instance) string {
	in, ok := inst.(*Instance)
	if !ok || in == nil {
		return ""
	}
	if in.cell != nil {
		return in.cell.name
	}
	return in.modCell
}

func (n *network) PinName(pin sta.Pin) string {
	p, ok := pin.(*Pin)
	if !ok || p == nil {
		return ""
	}
	return p.name
}

// cellRef is the opaque cell handle: the binding lives on the
// instance, so the handle just points back at it.
type cellRef struct {
	inst *Instance
}
