package source

import "path/filepath"

// NormalizePath makes front-end paths and editor paths compare equal:
// absolute, cleaned, forward slashes.
func NormalizePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.ToSlash(filepath.Clean(p))
}
