// Package testkit loads YAML analysis scenarios and checks the invariants
// every analysis result must satisfy.
package testkit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"owl/internal/driver"
	"owl/internal/frontend"
	"owl/internal/mir"
	"owl/internal/source"
)

// Cursor is a zero-based line/character position.
type Cursor struct {
	Line      uint32 `yaml:"line"`
	Character uint32 `yaml:"character"`
}

// ExpectedDeco is one decoration that must be present.
type ExpectedDeco struct {
	Type       string `yaml:"type"`
	From       uint32 `yaml:"from"`
	Until      uint32 `yaml:"until"`
	Overlapped *bool  `yaml:"overlapped,omitempty"`
}

// Expect lists what the decorations at the cursor must look like. Counts
// are exact per kind name; kinds not listed are unconstrained.
type Expect struct {
	Selected    *uint32        `yaml:"selected,omitempty"`
	Counts      map[string]int `yaml:"counts"`
	Decorations []ExpectedDeco `yaml:"decorations"`
}

// Scenario is one end-to-end case: source text, front-end bodies and the
// decorations expected at a cursor.
type Scenario struct {
	Name   string `yaml:"name"`
	Text   string `yaml:"text"`
	Cursor Cursor `yaml:"cursor"`
	Expect Expect `yaml:"expect"`

	Bodies []frontend.Body `yaml:"-"`
	Path   string          `yaml:"-"`
}

type scenarioFile struct {
	Scenario `yaml:",inline"`
	Bodies   []any `yaml:"bodies"`
}

// LoadScenario reads one fixture. Bodies use the front end's JSON field
// names.
func LoadScenario(path string) (*Scenario, error) {
	// #nosec G304 -- fixture path comes from the test
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw scenarioFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc := raw.Scenario
	sc.Path = path
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	bridged, err := json.Marshal(jsonable(raw.Bodies))
	if err != nil {
		return nil, fmt.Errorf("%s: bodies: %w", path, err)
	}
	if err := json.Unmarshal(bridged, &sc.Bodies); err != nil {
		return nil, fmt.Errorf("%s: bodies: %w", path, err)
	}
	return &sc, nil
}

// LoadScenarios reads every *.yaml fixture in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Analyze runs the per-function pipeline on every body of the scenario.
func (s *Scenario) Analyze() ([]mir.Function, error) {
	idx := source.NewIndex(s.Text)
	fns := make([]mir.Function, 0, len(s.Bodies))
	for i := range s.Bodies {
		fn, err := driver.AnalyzeBody(context.Background(), &s.Bodies[i], idx)
		if err != nil {
			return nil, fmt.Errorf("%s: fn %d: %w", s.Name, s.Bodies[i].FnID, err)
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

// Pos returns the cursor as a character offset.
func (s *Scenario) Pos() source.Loc {
	return source.LineCharToIndex(s.Text, s.Cursor.Line, s.Cursor.Character)
}

// jsonable rewrites the map[any]any values yaml produces for non-string keys
// so the tree can be marshalled as JSON.
func jsonable(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = jsonable(e)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = jsonable(e)
		}
		return out
	case []any:
		for i, e := range x {
			x[i] = jsonable(e)
		}
		return x
	default:
		return v
	}
}
