package mir

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"owl/internal/source"
)

// DumpWorkspace writes a human-readable representation of every function in
// w, ordered by crate, path and function id.
func DumpWorkspace(w io.Writer, ws Workspace) error {
	for _, name := range slices.Sorted(maps.Keys(ws)) {
		krate := ws[name]
		if _, err := fmt.Fprintf(w, "crate %s:\n", name); err != nil {
			return err
		}
		for _, path := range slices.Sorted(maps.Keys(krate)) {
			fmt.Fprintf(w, "  file %s:\n", path)
			items := slices.Clone(krate[path].Items)
			slices.SortFunc(items, func(a, b Function) int { return int(a.FnID) - int(b.FnID) })
			for i := range items {
				if err := DumpFunc(w, &items[i]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// DumpFunc writes one function.
func DumpFunc(w io.Writer, fn *Function) error {
	if w == nil || fn == nil {
		return nil
	}
	fmt.Fprintf(w, "\nfn #%d:\n", fn.FnID)

	fmt.Fprintf(w, "  decls:\n")
	for i := range fn.Decls {
		d := &fn.Decls[i]
		name := d.Name
		if !d.User {
			name = "_"
		}
		flags := ""
		if d.Drop {
			flags = " drop"
		}
		fmt.Fprintf(w, "    _%d: %s name=%s%s\n", d.Handle.Local, d.Ty, name, flags)
		dumpRanges(w, "lives", d.Lives)
		dumpRanges(w, "drop_range", d.DropRange)
		dumpRanges(w, "must_live_at", d.MustLiveAt)
		dumpRanges(w, "shared", d.SharedBorrow)
		dumpRanges(w, "mutable", d.MutableBorrow)
	}

	for i := range fn.BasicBlocks {
		bb := &fn.BasicBlocks[i]
		fmt.Fprintf(w, "  bb%d:\n", i)
		for j := range bb.Statements {
			fmt.Fprintf(w, "    %s\n", formatStmt(&bb.Statements[j]))
		}
		if bb.Terminator != nil {
			fmt.Fprintf(w, "    %s\n", formatTerm(bb.Terminator))
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func dumpRanges(w io.Writer, label string, rs []source.Range) {
	if len(rs) == 0 {
		return
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	fmt.Fprintf(w, "      %s: %s\n", label, strings.Join(parts, " "))
}

func formatStmt(s *Statement) string {
	if s.Kind != StmtAssign {
		return "other " + s.Range.String()
	}
	rhs := ""
	switch s.Rvalue.Kind {
	case RvalueMove:
		rhs = fmt.Sprintf(" = move _%d", s.Rvalue.Target.Local)
	case RvalueBorrow:
		mut := ""
		if s.Rvalue.Mutable {
			mut = "mut "
		}
		rhs = fmt.Sprintf(" = &%s_%d", mut, s.Rvalue.Target.Local)
	}
	return fmt.Sprintf("_%d%s %s", s.Target.Local, rhs, s.Range)
}

func formatTerm(t *Terminator) string {
	switch t.Kind {
	case TermDrop:
		return fmt.Sprintf("drop(_%d) %s", t.Local.Local, t.Range)
	case TermCall:
		return fmt.Sprintf("_%d = call %s", t.Local.Local, t.Range)
	default:
		return "term " + t.Range.String()
	}
}
