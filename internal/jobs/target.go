package jobs

import (
	"owl/internal/project"
	"owl/internal/source"
)

// TargetKind tells how a target is handed to the front end.
type TargetKind uint8

const (
	// TargetProject is a project directory, analyzed through the configured
	// build command.
	TargetProject TargetKind = iota
	// TargetFacts is a single fact file, analyzed by owl itself.
	TargetFacts
)

func (k TargetKind) String() string {
	if k == TargetFacts {
		return "facts"
	}
	return "project"
}

// Target is one registered analysis root.
type Target struct {
	Path string
	Kind TargetKind
}

// NewTarget normalizes path and classifies it.
func NewTarget(path string) Target {
	t := Target{Path: source.NormalizePath(path)}
	if project.IsFactsFile(t.Path) {
		t.Kind = TargetFacts
	}
	return t
}
