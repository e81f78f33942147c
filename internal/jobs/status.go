// Package jobs runs analysis workers for registered targets and keeps the
// merged results available for cursor queries.
package jobs

import "fmt"

// Status is the analysis state of a target or of the whole manager.
type Status uint8

const (
	StatusIdle Status = iota
	StatusAnalyzing
	StatusFinished
	StatusError
)

var statusNames = [...]string{
	StatusIdle:      "idle",
	StatusAnalyzing: "analyzing",
	StatusFinished:  "finished",
	StatusError:     "error",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", s)
}

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("jobs: invalid status %d", s)
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i) // #nosec G115 -- bounded by the table
			return nil
		}
	}
	return fmt.Errorf("jobs: unknown status %q", text)
}
