package testkit

import (
	"fmt"

	"owl/internal/decoration"
	"owl/internal/mir"
	"owl/internal/ranges"
	"owl/internal/source"
)

// CheckFunctionInvariants runs the structural checks on an analyzed function
// and verifies that every range lies inside the text:
// 1) mir.Validate passes
// 2) every decl range set is eliminated (sorted, disjoint, non-adjacent)
// 3) no range ends past the last character
func CheckFunctionInvariants(fn *mir.Function, text string) error {
	if err := mir.Validate(fn); err != nil {
		return err
	}
	limit := source.NewIndex(text).Chars()
	check := func(what string, r source.Range) error {
		if r.Until > limit {
			return fmt.Errorf("%s: range %s ends past the text (%d chars)", what, r, limit)
		}
		return nil
	}
	for i := range fn.Decls {
		d := &fn.Decls[i]
		for name, set := range map[string][]source.Range{
			"lives":          d.Lives,
			"must_live_at":   d.MustLiveAt,
			"shared_borrow":  d.SharedBorrow,
			"mutable_borrow": d.MutableBorrow,
			"drop_range":     d.DropRange,
		} {
			if len(ranges.Eliminate(set)) != len(set) {
				return fmt.Errorf("decl %s: %s not eliminated: %v", d.Handle, name, set)
			}
			for _, r := range set {
				if err := check(fmt.Sprintf("decl %s %s", d.Handle, name), r); err != nil {
					return err
				}
			}
		}
	}
	for i := range fn.BasicBlocks {
		bb := &fn.BasicBlocks[i]
		for j := range bb.Statements {
			if err := check(fmt.Sprintf("bb%d[%d]", i, j), bb.Statements[j].Range); err != nil {
				return err
			}
		}
		if bb.Terminator != nil {
			if err := check(fmt.Sprintf("bb%d terminator", i), bb.Terminator.Range); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckDecorationInvariants verifies a resolved decoration list:
// 1) every range is non-empty
// 2) kinds appear in non-decreasing priority
// 3) no two decorations share kind, local and range
// 4) two decorations that are both not overlapped never intersect
func CheckDecorationInvariants(decos []decoration.Deco) error {
	for i, d := range decos {
		if !d.Range.Valid() {
			return fmt.Errorf("deco %d (%s): empty range %s", i, d.Kind, d.Range)
		}
		if i > 0 && decos[i-1].Kind.Priority() > d.Kind.Priority() {
			return fmt.Errorf("deco %d (%s) placed after %s", i, d.Kind, decos[i-1].Kind)
		}
		for j := 0; j < i; j++ {
			e := decos[j]
			if e.Kind == d.Kind && e.Local == d.Local && e.Range == d.Range {
				return fmt.Errorf("deco %d duplicates deco %d (%s %s)", i, j, d.Kind, d.Range)
			}
			if d.Overlapped || e.Overlapped {
				continue
			}
			if c, ok := ranges.Common(d.Range, e.Range); ok {
				return fmt.Errorf("deco %d (%s) and %d (%s) share %s unmarked", j, e.Kind, i, d.Kind, c)
			}
		}
	}
	return nil
}
