// Package sta defines the interfaces the sizing controller consumes
// from an external static-timing-analysis engine.
//
// The engine owns the netlist, the characterization libraries, and all
// timing data. The controller holds only the opaque handles defined
// here and never builds a pointer graph of its own; every query about
// an instance, pin, or cell goes back through the Network interface.
package sta
