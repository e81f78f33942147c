package mir

import "owl/internal/source"

type BasicBlock struct {
	Statements []Statement `json:"statements"`
	Terminator *Terminator `json:"terminator,omitempty"`
}

// RangeAt returns the range of statement idx, or of the terminator when idx
// is one past the last statement.
func (b *BasicBlock) RangeAt(idx int) (source.Range, bool) {
	if b == nil || idx < 0 {
		return source.Range{}, false
	}
	if idx < len(b.Statements) {
		return b.Statements[idx].Range, true
	}
	if b.Terminator != nil {
		return b.Terminator.Range, true
	}
	return source.Range{}, false
}
