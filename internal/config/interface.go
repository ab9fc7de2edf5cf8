package config

import "context"

// Loader is the interface for a format-specific profile loader. Paths
// may be files or directories; a directory is scanned for profile
// files of the loader's syntax. Loading no paths returns the defaults.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
