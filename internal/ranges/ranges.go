// Package ranges implements the interval algebra used by every analysis stage.
// All operations work on half-open source.Range values and never produce an
// empty range.
package ranges

import (
	"slices"

	"owl/internal/source"
)

// IsSuperRange reports whether a contains b and is strictly larger on at
// least one side.
func IsSuperRange(a, b source.Range) bool {
	return (a.From < b.From && b.Until <= a.Until) ||
		(a.From <= b.From && b.Until < a.Until)
}

// Common returns the intersection of a and b. ok is false when they share no
// character.
func Common(a, b source.Range) (source.Range, bool) {
	if b.From < a.From {
		a, b = b, a
	}
	return source.NewRange(b.From, min(a.Until, b.Until))
}

// CommonAll returns every pairwise intersection of rs, merged into disjoint
// ranges.
func CommonAll(rs []source.Range) []source.Range {
	var out []source.Range
	for i := range rs {
		for j := i + 1; j < len(rs); j++ {
			if c, ok := Common(rs[i], rs[j]); ok {
				out = append(out, c)
			}
		}
	}
	return Eliminate(out)
}

// Merge returns the union of a and b when they overlap or touch.
func Merge(a, b source.Range) (source.Range, bool) {
	if b.From < a.From {
		a, b = b, a
	}
	if a.Until < b.From {
		return source.Range{}, false
	}
	return source.Range{From: a.From, Until: max(a.Until, b.Until)}, true
}

// Eliminate merges overlapping and adjacent ranges until none are left. The
// result is sorted by From and pairwise disjoint, and Eliminate of it is a
// no-op.
func Eliminate(rs []source.Range) []source.Range {
	if len(rs) == 0 {
		return nil
	}
	sorted := slices.Clone(rs)
	slices.SortFunc(sorted, func(a, b source.Range) int {
		if a.From != b.From {
			return int(a.From) - int(b.From)
		}
		return int(a.Until) - int(b.Until)
	})
	out := make([]source.Range, 0, len(sorted))
	cur := sorted[0]
	for _, r := range sorted[1:] {
		if m, ok := Merge(cur, r); ok {
			cur = m
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// Exclude subtracts every range in excludes from every range in from.
func Exclude(from, excludes []source.Range) []source.Range {
	work := slices.Clone(from)
	for _, ex := range excludes {
		next := work[:0:0]
		for _, r := range work {
			c, ok := Common(r, ex)
			if !ok {
				next = append(next, r)
				continue
			}
			if left, ok := source.NewRange(r.From, c.From); ok {
				next = append(next, left)
			}
			if right, ok := source.NewRange(c.Until, r.Until); ok {
				next = append(next, right)
			}
		}
		work = next
	}
	return Eliminate(work)
}

// Intersect returns the parts covered by both xs and ys.
func Intersect(xs, ys []source.Range) []source.Range {
	var out []source.Range
	for _, x := range xs {
		for _, y := range ys {
			if c, ok := Common(x, y); ok {
				out = append(out, c)
			}
		}
	}
	return Eliminate(out)
}
