package frontend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// CrateFacts is the unit of work handed to an analysis worker: every body of
// one crate. Sources optionally inlines file texts by path, otherwise they
// are read from disk.
type CrateFacts struct {
	Crate   string            `json:"crate"`
	Sources map[string]string `json:"sources,omitempty"`
	Bodies  []Body            `json:"bodies"`
}

var (
	// ErrNoCrateName is returned for fact files that do not name their crate.
	ErrNoCrateName = errors.New("facts: missing crate name")
)

// DecodeCrateFacts reads one CrateFacts document.
func DecodeCrateFacts(r io.Reader) (*CrateFacts, error) {
	var cf CrateFacts
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("facts: %w", err)
	}
	if cf.Crate == "" {
		return nil, ErrNoCrateName
	}
	return &cf, nil
}

// LoadCrateFacts reads a fact file from disk.
func LoadCrateFacts(path string) (*CrateFacts, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cf, err := DecodeCrateFacts(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cf, nil
}
