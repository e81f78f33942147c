package decoration

import (
	"fmt"
	"slices"

	"owl/internal/mir"
	"owl/internal/ranges"
	"owl/internal/source"
)

// Calculator synthesizes the decorations of a set of variables. Walk it over
// the functions holding them, then call ResolveOverlaps.
type Calculator struct {
	locals map[mir.VarHandle]struct{}
	decos  []Deco
}

var _ mir.Visitor = (*Calculator)(nil)

func NewCalculator(handles ...mir.VarHandle) *Calculator {
	c := &Calculator{locals: make(map[mir.VarHandle]struct{}, len(handles))}
	for _, h := range handles {
		c.locals[h] = struct{}{}
	}
	return c
}

func (c *Calculator) tracked(h mir.VarHandle) bool {
	_, ok := c.locals[h]
	return ok
}

func (c *Calculator) push(kind Kind, local mir.VarHandle, r source.Range, hover string) {
	c.decos = append(c.decos, Deco{Kind: kind, Local: local, Range: r, HoverText: hover})
}

func (c *Calculator) VisitFunc(*mir.Function) {}

func (c *Calculator) VisitDecl(d *mir.Decl) {
	if !c.tracked(d.Handle) {
		return
	}
	subject := "anonymous variable"
	if d.User {
		subject = fmt.Sprintf("variable `%s`", d.Name)
	}

	lifetime := ranges.Eliminate(d.Lives)
	if d.Drop {
		lifetime = ranges.Eliminate(d.DropRange)
	}
	for _, r := range lifetime {
		c.push(KindLifetime, d.Handle, r, "lifetime of "+subject)
	}
	for _, r := range ranges.Intersect(d.SharedBorrow, d.MutableBorrow) {
		c.push(KindSharedMut, d.Handle, r, fmt.Sprintf("immutable and mutable borrows of %s exist here", subject))
	}
	for _, r := range ranges.Exclude(d.MustLiveAt, lifetime) {
		c.push(KindOutlive, d.Handle, r, subject+" is required to live here")
	}
}

func (c *Calculator) VisitStmt(st *mir.Statement) {
	if st.Kind != mir.StmtAssign || !c.tracked(st.Rvalue.Target) {
		return
	}
	rv := st.Rvalue
	switch rv.Kind {
	case mir.RvalueMove:
		c.push(KindMove, rv.Target, rv.Range, "variable moved")
	case mir.RvalueBorrow:
		if rv.Mutable {
			c.push(KindMutBorrow, rv.Target, rv.Range, "mutable borrow")
		} else {
			c.push(KindImmBorrow, rv.Target, rv.Range, "immutable borrow")
		}
	}
}

// VisitTerm adds a call decoration. Nested calls into the same destination
// collapse to the widest expression.
func (c *Calculator) VisitTerm(t *mir.Terminator) {
	if t.Kind != mir.TermCall || !c.tracked(t.Local) {
		return
	}
	for _, d := range c.decos {
		if d.Kind == KindCall && ranges.IsSuperRange(d.Range, t.Range) {
			return
		}
	}
	c.decos = slices.DeleteFunc(c.decos, func(d Deco) bool {
		return d.Kind == KindCall && ranges.IsSuperRange(t.Range, d.Range)
	})
	c.push(KindCall, t.Local, t.Range, "function call")
}

// ResolveOverlaps orders the decorations by kind priority and splits every
// earlier decoration that intersects a later one: the shared part is marked
// overlapped, the remainders stay unmarked right after it. Exact duplicates
// are dropped and a decoration is never split twice.
func (c *Calculator) ResolveOverlaps() {
	c.decos = ResolveOverlaps(c.decos)
}

// Decorations returns the synthesized decorations.
func (c *Calculator) Decorations() []Deco {
	return c.decos
}

// ResolveOverlaps is the overlap pass of Calculator on an arbitrary list.
func ResolveOverlaps(decos []Deco) []Deco {
	sorted := slices.Clone(decos)
	slices.SortStableFunc(sorted, func(a, b Deco) int {
		return int(a.Kind.Priority()) - int(b.Kind.Priority())
	})

	out := make([]Deco, 0, len(sorted))
	for _, cur := range sorted {
		if slices.Contains(out, cur) {
			continue
		}
		var next []Deco
		for _, prev := range out {
			if prev.Overlapped {
				next = append(next, prev)
				continue
			}
			common, ok := ranges.Common(cur.Range, prev.Range)
			if !ok {
				next = append(next, prev)
				continue
			}
			next = append(next, prev.withRange(common, true))
			for _, rest := range ranges.Exclude([]source.Range{prev.Range}, []source.Range{common}) {
				next = append(next, prev.withRange(rest, false))
			}
		}
		out = append(next, cur)
	}
	// two clipped decorations of one kind can end up on the same range, one
	// of them marked overlapped; the marked copy wins
	type spot struct {
		kind  Kind
		local mir.VarHandle
		rng   source.Range
	}
	at := make(map[spot]int, len(out))
	uniq := make([]Deco, 0, len(out))
	for _, d := range out {
		k := spot{d.Kind, d.Local, d.Range}
		if i, dup := at[k]; dup {
			uniq[i].Overlapped = uniq[i].Overlapped || d.Overlapped
			continue
		}
		at[k] = len(uniq)
		uniq = append(uniq, d)
	}
	return uniq
}

// Decorate selects the variable at pos among fns and returns its resolved
// decorations. Nothing is selected when pos lies outside every candidate.
func Decorate(fns []mir.Function, pos source.Loc) []Deco {
	sel := NewSelector(pos)
	for i := range fns {
		mir.Walk(&fns[i], sel)
	}
	h, ok := sel.Selected()
	if !ok {
		return nil
	}
	calc := NewCalculator(h)
	for i := range fns {
		mir.Walk(&fns[i], calc)
	}
	calc.ResolveOverlaps()
	return calc.Decorations()
}
