// Package sizer is the closed-loop gate-sizing controller. Each
// iteration queries the timer for the worst violating setup paths,
// attributes blame to the slow-grade cells along them, swaps a bounded
// batch of top offenders for their fast-grade variants, and adapts its
// effort levers from the worst-negative-slack trajectory until a
// terminal state is reached.
package sizer
