package source

import (
	"sort"
	"strings"

	"fortio.org/safecast"
)

// Loc is a character offset into a file's text. Carriage returns are not
// counted, the front end ignores them when it reports positions.
type Loc uint32

// NewLoc converts a byte position reported by the front end into a Loc.
// offset is the position at which the file starts in the front end's
// address space. Positions past the end clamp to the character count.
func NewLoc(text string, bytePos, offset uint32) Loc {
	return NewIndex(text).Loc(bytePos, offset)
}

// Add shifts the location by delta, saturating at zero.
func (l Loc) Add(delta int32) Loc {
	if delta < 0 {
		return l.Sub(-delta)
	}
	return l + Loc(delta)
}

// Sub shifts the location back by delta, saturating at zero.
func (l Loc) Sub(delta int32) Loc {
	if delta < 0 {
		return l.Add(-delta)
	}
	if uint32(l) < uint32(delta) {
		return 0
	}
	return l - Loc(delta)
}

// Index maps byte positions to character offsets for one text. Build it once
// per file and reuse it for every span of that file.
type Index struct {
	starts []uint32 // byte offset of each character in the CR-stripped text
}

// NewIndex prepares the byte-to-character table for text.
func NewIndex(text string) *Index {
	clean := strings.ReplaceAll(text, "\r", "")
	starts := make([]uint32, 0, len(clean))
	for i := range clean {
		u, err := safecast.Conv[uint32](i)
		if err != nil {
			break
		}
		starts = append(starts, u)
	}
	return &Index{starts: starts}
}

// Chars returns the number of characters in the indexed text.
func (x *Index) Chars() Loc {
	return Loc(len(x.starts)) // #nosec G115 -- bounded by the uint32 check in NewIndex
}

// Loc returns the first character whose byte offset is at or after
// bytePos-offset.
func (x *Index) Loc(bytePos, offset uint32) Loc {
	pos := uint32(0)
	if bytePos > offset {
		pos = bytePos - offset
	}
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] >= pos })
	return Loc(i) // #nosec G115 -- i <= len(starts)
}

// Range converts a byte span into a Range. ok is false for empty spans.
func (x *Index) Range(lo, hi, offset uint32) (Range, bool) {
	return NewRange(x.Loc(lo, offset), x.Loc(hi, offset))
}
