package frontend

import (
	"encoding/json"
	"errors"
	"fmt"

	"owl/internal/mir"
)

// Reason tags a worker message.
type Reason string

const (
	// ReasonUnitChecked reports that one compilation unit finished. Total is
	// the number of units the worker expects to check.
	ReasonUnitChecked Reason = "unit-checked"
	// ReasonAnalyzed carries a workspace fragment.
	ReasonAnalyzed Reason = "analyzed"
)

// Message is one line of a worker's output stream.
type Message struct {
	Reason    Reason        `json:"reason"`
	Unit      string        `json:"unit,omitempty"`
	Total     int           `json:"total,omitempty"`
	Workspace mir.Workspace `json:"workspace,omitempty"`
}

// ErrUnknownReason is returned for well-formed lines that are not owl
// messages. Build tools print plenty of those.
var ErrUnknownReason = errors.New("unknown message reason")

// EncodeMessage renders msg as a single line, newline included.
func EncodeMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeMessage parses one line.
func DecodeMessage(line []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message{}, err
	}
	switch msg.Reason {
	case ReasonUnitChecked:
		return msg, nil
	case ReasonAnalyzed:
		if msg.Workspace == nil {
			return Message{}, fmt.Errorf("analyzed message without workspace")
		}
		return msg, nil
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownReason, msg.Reason)
	}
}

// Fragment wraps a single function into a workspace fragment.
func Fragment(crate, path string, fn mir.Function) mir.Workspace {
	return mir.Workspace{crate: mir.Crate{path: mir.File{Items: []mir.Function{fn}}}}
}
