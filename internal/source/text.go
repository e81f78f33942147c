package source

import "strings"

// IndexToLineChar converts a character offset into a zero-based
// (line, character) pair. Offsets past the end of text map to (0, 0).
func IndexToLineChar(text string, idx Loc) (line, char uint32) {
	var i Loc
	for _, r := range strings.ReplaceAll(text, "\r", "") {
		if i == idx {
			return line, char
		}
		if r == '\n' {
			line++
			char = 0
		} else {
			char++
		}
		i++
	}
	if i == idx {
		return line, char
	}
	return 0, 0
}

// LineCharToIndex converts a zero-based (line, character) pair into a
// character offset. Positions that do not exist map to 0.
func LineCharToIndex(text string, line, char uint32) Loc {
	var col uint32
	var i Loc
	for _, r := range strings.ReplaceAll(text, "\r", "") {
		if line == 0 && col == char {
			return i
		}
		if r == '\n' && line > 0 {
			line--
			col = 0
		} else {
			col++
		}
		i++
	}
	if line == 0 && col == char {
		return i
	}
	return 0
}
