package cache

import (
	"errors"
	"fmt"
	"os"
)

// BackendKind selects the storage format.
type BackendKind string

const (
	BackendFile   BackendKind = "file"
	BackendSQLite BackendKind = "sqlite"
)

// ErrNoDir is returned by Open when caching is enabled without a directory.
var ErrNoDir = errors.New("cache: no directory configured")

// Options configures Open.
type Options struct {
	Enabled  bool
	Dir      string // required when Enabled
	Backend  BackendKind
	Compress bool // file backend only
}

// Open returns the configured backend, or nil when caching is disabled.
func Open(opts Options) (Backend, error) {
	if !opts.Enabled {
		return nil, nil
	}
	if opts.Dir == "" {
		return nil, ErrNoDir
	}
	switch opts.Backend {
	case "", BackendFile:
		return NewFileBackend(opts.Dir, opts.Compress)
	case BackendSQLite:
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, err
		}
		return OpenSQLite(opts.Dir)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}
