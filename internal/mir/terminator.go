package mir

import "owl/internal/source"

// TermKind enumerates terminator kinds.
type TermKind uint8

const (
	TermOther TermKind = iota
	TermDrop
	TermCall
)

func (k TermKind) String() string {
	switch k {
	case TermDrop:
		return "drop"
	case TermCall:
		return "call"
	default:
		return "other"
	}
}

// Terminator ends a basic block. Local is the dropped variable for TermDrop
// and the destination for TermCall. For calls Range is the whole call
// expression.
type Terminator struct {
	Kind  TermKind     `json:"kind"`
	Local VarHandle    `json:"local"`
	Range source.Range `json:"range"`
}
