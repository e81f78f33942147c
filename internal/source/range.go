package source

import "fmt"

// Range is the half-open interval [From, Until) over character offsets.
// A Range is never empty: use NewRange to build one.
type Range struct {
	From  Loc `json:"from"`
	Until Loc `json:"until"`
}

// NewRange returns the range [from, until). ok is false when until <= from.
func NewRange(from, until Loc) (Range, bool) {
	if until <= from {
		return Range{}, false
	}
	return Range{From: from, Until: until}, true
}

// Size returns Until - From.
func (r Range) Size() uint32 {
	return uint32(r.Until - r.From)
}

// Contains reports whether pos lies within the range. Both ends count, so a
// cursor placed just after the last character still hits it.
func (r Range) Contains(pos Loc) bool {
	return r.From <= pos && pos <= r.Until
}

// Valid reports whether the range is non-empty.
func (r Range) Valid() bool {
	return r.Until > r.From
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.From, r.Until)
}
