package decoration

import (
	"slices"

	"owl/internal/mir"
	"owl/internal/source"
)

// asyncPlaceholders are compiler-introduced types of async state locals.
// They are tracked as declarations but never selected.
var asyncPlaceholders = []string{
	"std::future::ResumeTy",
	"impl std::future::Future<Output = ()>",
}

type selectReason uint8

const (
	reasonVar selectReason = iota
	reasonMove
	reasonBorrow
	reasonCall
)

type selection struct {
	reason selectReason
	local  mir.VarHandle
	r      source.Range
}

// Selector picks the variable under a cursor position. Walk it over the
// functions of a file, then read Selected.
type Selector struct {
	pos        source.Loc
	candidates map[mir.VarHandle]struct{}
	selected   *selection
}

var _ mir.Visitor = (*Selector)(nil)

func NewSelector(pos source.Loc) *Selector {
	return &Selector{pos: pos, candidates: make(map[mir.VarHandle]struct{})}
}

// Selected returns the chosen variable.
func (s *Selector) Selected() (mir.VarHandle, bool) {
	if s.selected == nil {
		return mir.VarHandle{}, false
	}
	return s.selected.local, true
}

func (s *Selector) selectAt(reason selectReason, local mir.VarHandle, r source.Range) {
	if _, ok := s.candidates[local]; !ok {
		return
	}
	if !r.Contains(s.pos) {
		return
	}
	cur := s.selected
	if cur == nil {
		s.selected = &selection{reason, local, r}
		return
	}
	replace := false
	switch {
	case reason == reasonVar:
		replace = r.Size() < cur.r.Size()
	case cur.reason == reasonVar:
	case reason == reasonMove || reason == reasonBorrow:
		replace = r.Size() < cur.r.Size()
	case cur.reason == reasonCall && reason == reasonCall:
		replace = cur.r.Size() < r.Size()
	}
	if replace {
		s.selected = &selection{reason, local, r}
	}
}

func (s *Selector) VisitFunc(*mir.Function) {}

func (s *Selector) VisitDecl(d *mir.Decl) {
	if slices.Contains(asyncPlaceholders, d.Ty) {
		return
	}
	s.candidates[d.Handle] = struct{}{}
	if d.User {
		s.selectAt(reasonVar, d.Handle, d.Span)
	}
}

func (s *Selector) VisitStmt(st *mir.Statement) {
	if st.Kind != mir.StmtAssign {
		return
	}
	switch st.Rvalue.Kind {
	case mir.RvalueMove:
		s.selectAt(reasonMove, st.Rvalue.Target, st.Rvalue.Range)
	case mir.RvalueBorrow:
		s.selectAt(reasonBorrow, st.Rvalue.Target, st.Rvalue.Range)
	}
}

func (s *Selector) VisitTerm(t *mir.Terminator) {
	if t.Kind == mir.TermCall {
		s.selectAt(reasonCall, t.Local, t.Range)
	}
}
