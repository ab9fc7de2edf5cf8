// Package app wires the application together: it builds the logger,
// loads the sizing profile, resolves the timing engine from the
// registry and hands control to the sizing loop.
package app
