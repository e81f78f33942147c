package trace

import (
	"fmt"
	"strings"
)

// Level controls which scopes are recorded.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // warnings only
	LevelPhase        // sessions and jobs
	LevelDetail       // crate runs
	LevelDebug        // function bodies
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether spans and points of scope are recorded at l.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeJob
	case LevelDetail:
		return scope <= ScopeCrate
	case LevelDebug:
		return true
	}
	return false
}

// admits reports whether a tracer at l records ev.
func (l Level) admits(ev *Event) bool {
	switch ev.Kind {
	case KindHeartbeat, KindWarn:
		return l > LevelOff
	}
	return l.ShouldEmit(ev.Scope)
}
