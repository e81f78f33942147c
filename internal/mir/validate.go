package mir

import (
	"errors"
	"fmt"

	"owl/internal/source"
)

// Validate checks the invariants every produced function must satisfy:
// non-empty ranges, declarations owned by the function, and no duplicate
// declarations. Results received from another process are validated before
// they are merged.
func Validate(fn *Function) error {
	if fn == nil {
		return nil
	}
	var errs []error
	seen := make(map[uint32]struct{}, len(fn.Decls))
	for i := range fn.Decls {
		d := &fn.Decls[i]
		if d.Handle.Fn != fn.FnID {
			errs = append(errs, fmt.Errorf("decl _%d belongs to fn %d", d.Handle.Local, d.Handle.Fn))
		}
		if _, dup := seen[d.Handle.Local]; dup {
			errs = append(errs, fmt.Errorf("duplicate decl _%d", d.Handle.Local))
		}
		seen[d.Handle.Local] = struct{}{}
		if d.User && !d.Span.Valid() {
			errs = append(errs, fmt.Errorf("decl _%d: empty span", d.Handle.Local))
		}
		for _, set := range [][]source.Range{d.Lives, d.MustLiveAt, d.SharedBorrow, d.MutableBorrow, d.DropRange} {
			if err := validateRanges(set); err != nil {
				errs = append(errs, fmt.Errorf("decl _%d: %w", d.Handle.Local, err))
				break
			}
		}
	}
	for i := range fn.BasicBlocks {
		bb := &fn.BasicBlocks[i]
		for j := range bb.Statements {
			s := &bb.Statements[j]
			if !s.Range.Valid() {
				errs = append(errs, fmt.Errorf("bb%d[%d]: empty range", i, j))
			}
			if s.Rvalue.Kind != RvalueNone && !s.Rvalue.Range.Valid() {
				errs = append(errs, fmt.Errorf("bb%d[%d]: empty rvalue range", i, j))
			}
		}
		if bb.Terminator != nil && !bb.Terminator.Range.Valid() {
			errs = append(errs, fmt.Errorf("bb%d: empty terminator range", i))
		}
	}
	return errors.Join(errs...)
}

func validateRanges(rs []source.Range) error {
	for _, r := range rs {
		if !r.Valid() {
			return fmt.Errorf("empty range %s", r)
		}
	}
	return nil
}
