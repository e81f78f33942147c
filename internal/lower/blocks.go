// Package lower turns a front-end body into the mir model: basic blocks with
// source ranges, user variable bindings and the borrow map.
package lower

import (
	"owl/internal/frontend"
	"owl/internal/mir"
	"owl/internal/source"
)

// Layout resolves raw (block, statement) locations to source ranges. It is
// indexed by the front end's statement numbering, so statements dropped
// from the blocks (hidden spans) resolve to nothing.
type Layout struct {
	blocks [][]slot
}

type slot struct {
	r  source.Range
	ok bool
}

// RangeAt returns the range of statement stmt of block, where stmt equal to
// the statement count addresses the terminator.
func (l *Layout) RangeAt(block, stmt uint32) (source.Range, bool) {
	if l == nil || int(block) >= len(l.blocks) {
		return source.Range{}, false
	}
	slots := l.blocks[block]
	if int(stmt) >= len(slots) {
		return source.Range{}, false
	}
	s := slots[stmt]
	return s.r, s.ok
}

type converter struct {
	fn     uint32
	idx    *source.Index
	offset uint32
}

func (c *converter) rangeOf(sp frontend.Span) (source.Range, bool) {
	if sp.Hidden {
		return source.Range{}, false
	}
	return c.idx.Range(sp.Lo, sp.Hi, c.offset)
}

func (c *converter) handle(local uint32) mir.VarHandle {
	return mir.NewVarHandle(local, c.fn)
}

// Blocks converts the body's blocks. Statements and terminators whose span
// is hidden or empty are skipped.
func Blocks(body *frontend.Body, idx *source.Index) ([]mir.BasicBlock, *Layout) {
	c := &converter{fn: body.FnID, idx: idx, offset: body.Offset}
	blocks := make([]mir.BasicBlock, len(body.Blocks))
	layout := &Layout{blocks: make([][]slot, len(body.Blocks))}

	for b := range body.Blocks {
		raw := &body.Blocks[b]
		slots := make([]slot, len(raw.Statements)+1)
		stmts := make([]mir.Statement, 0, len(raw.Statements))
		for s := range raw.Statements {
			stmt, ok := c.statement(&raw.Statements[s])
			if !ok {
				continue
			}
			stmts = append(stmts, stmt)
			slots[s] = slot{r: stmt.Range, ok: true}
		}
		blocks[b].Statements = stmts
		if raw.Terminator != nil {
			if term, ok := c.terminator(raw.Terminator); ok {
				blocks[b].Terminator = &term
				slots[len(raw.Statements)] = slot{r: term.Range, ok: true}
			}
		}
		layout.blocks[b] = slots
	}
	return blocks, layout
}

func (c *converter) statement(raw *frontend.RawStatement) (mir.Statement, bool) {
	r, ok := c.rangeOf(raw.Span)
	if !ok {
		return mir.Statement{}, false
	}
	if raw.Kind != frontend.StatementAssign {
		return mir.Statement{Kind: mir.StmtOther, Range: r}, true
	}
	stmt := mir.Statement{
		Kind:   mir.StmtAssign,
		Target: c.handle(raw.Place),
		Range:  r,
	}
	if rv := raw.Rvalue; rv != nil {
		switch rv.Kind {
		case frontend.OperandMove:
			stmt.Rvalue = mir.Rvalue{Kind: mir.RvalueMove, Target: c.handle(rv.Local), Range: r}
		case frontend.OperandRef:
			stmt.Rvalue = mir.Rvalue{Kind: mir.RvalueBorrow, Target: c.handle(rv.Local), Range: r, Mutable: rv.Mutable}
		}
	}
	return stmt, true
}

func (c *converter) terminator(raw *frontend.RawTerminator) (mir.Terminator, bool) {
	switch raw.Kind {
	case frontend.TerminatorDrop:
		r, ok := c.rangeOf(raw.Span)
		return mir.Terminator{Kind: mir.TermDrop, Local: c.handle(raw.Place), Range: r}, ok
	case frontend.TerminatorCall:
		r, ok := c.rangeOf(raw.FnSpan)
		return mir.Terminator{Kind: mir.TermCall, Local: c.handle(raw.Place), Range: r}, ok
	default:
		r, ok := c.rangeOf(raw.Span)
		return mir.Terminator{Kind: mir.TermOther, Range: r}, ok
	}
}

// UserVar is a user-named binding.
type UserVar struct {
	Name  string
	Range source.Range
}

// UserVars extracts user-named variables from the debug info. Constants and
// bindings without a visible span are ignored; for a local bound twice the
// last binding wins.
func UserVars(body *frontend.Body, idx *source.Index) map[uint32]UserVar {
	c := &converter{fn: body.FnID, idx: idx, offset: body.Offset}
	out := make(map[uint32]UserVar, len(body.DebugVars))
	for _, dv := range body.DebugVars {
		if dv.Const {
			continue
		}
		r, ok := c.rangeOf(dv.Span)
		if !ok {
			continue
		}
		out[dv.Local] = UserVar{Name: dv.Name, Range: r}
	}
	return out
}
