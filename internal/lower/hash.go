package lower

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"owl/internal/frontend"
	"owl/internal/project"
)

// EraseRegions returns a copy of body with every inferred region zeroed.
// Region numbering is unstable across runs of the front end, so equal code
// must compare equal without it.
func EraseRegions(body *frontend.Body) *frontend.Body {
	out := *body
	out.Locals = make([]frontend.LocalDecl, len(body.Locals))
	for i, l := range body.Locals {
		out.Locals[i] = frontend.LocalDecl{Ty: l.Ty}
	}
	out.Blocks = make([]frontend.RawBlock, len(body.Blocks))
	for b, blk := range body.Blocks {
		stmts := make([]frontend.RawStatement, len(blk.Statements))
		for s, st := range blk.Statements {
			if st.Rvalue != nil {
				rv := *st.Rvalue
				rv.Region = 0
				st.Rvalue = &rv
			}
			stmts[s] = st
		}
		out.Blocks[b] = frontend.RawBlock{Statements: stmts, Terminator: blk.Terminator}
	}
	out.Borrows = make([]frontend.RawBorrow, len(body.Borrows))
	for i, br := range body.Borrows {
		br.Region = 0
		out.Borrows[i] = br
	}
	return &out
}

// shape is the part of a body that determines its analysis result apart
// from the solver output.
type shape struct {
	FnID      uint32               `msgpack:"fn"`
	Locals    []frontend.LocalDecl `msgpack:"locals"`
	DebugVars []frontend.DebugVar  `msgpack:"vars"`
	Blocks    []frontend.RawBlock  `msgpack:"blocks"`
	Borrows   []frontend.RawBorrow `msgpack:"borrows"`
}

// ControlFlowHash digests the region-erased body. Two bodies with the same
// hash in the same file produce the same analysis result.
func ControlFlowHash(body *frontend.Body) (project.Digest, error) {
	erased := EraseRegions(body)
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(shape{
		FnID:      erased.FnID,
		Locals:    erased.Locals,
		DebugVars: erased.DebugVars,
		Blocks:    erased.Blocks,
		Borrows:   erased.Borrows,
	}); err != nil {
		return project.Digest{}, err
	}
	return project.Sum(buf.Bytes()), nil
}
