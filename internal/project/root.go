package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigName is the file owl reads its settings from.
const ConfigName = "owl.toml"

// FactsSuffixes are the extensions of single-file fact dumps. A target with
// one of them is analyzed directly instead of through the build command.
var FactsSuffixes = []string{".owlfacts.json", ".owlfacts"}

// FindUp walks up from startDir to locate name.
func FindUp(startDir, name string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindConfig walks up from startDir to locate owl.toml.
func FindConfig(startDir string) (path string, ok bool, err error) {
	return FindUp(startDir, ConfigName)
}

// FindProjectRoot returns the directory containing owl.toml, if any.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindConfig(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// IsFactsFile reports whether path names a single-file fact dump.
func IsFactsFile(path string) bool {
	for _, suffix := range FactsSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
