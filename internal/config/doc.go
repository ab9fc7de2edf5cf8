// Package config holds the format-agnostic model of the sizing
// profile: every knob of the optimization loop, with the defaults and
// range checks that keep the controller inside its contract. Loading
// from a concrete syntax is behind the Loader interface so the model
// never imports a parser.
package config
