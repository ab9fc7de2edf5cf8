// Package hcl implements the config.Loader interface for HCL sizing
// profiles. A profile is one or more .hcl files carrying a `sizing`
// block; attributes omitted from every file keep their documented
// defaults, and later files override earlier ones.
package hcl
