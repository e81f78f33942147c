package driver

import (
	"context"
	"fmt"

	"owl/internal/facts"
	"owl/internal/frontend"
	"owl/internal/lower"
	"owl/internal/mir"
	"owl/internal/source"
)

// AnalyzeBody computes the function model of one body. idx must index the
// text of the file the body lives in.
func AnalyzeBody(ctx context.Context, body *frontend.Body, idx *source.Index) (mir.Function, error) {
	blocks, layout := lower.Blocks(body, idx)
	vars := lower.UserVars(body, idx)
	borrows := lower.NewBorrowMap(body)
	conv := facts.NewConverter(body, layout)
	rel := &body.Facts

	live, err := conv.LiveRanges(ctx, rel)
	if err != nil {
		return mir.Function{}, fmt.Errorf("live ranges: %w", err)
	}
	dropLive, err := conv.DropRanges(ctx, rel)
	if err != nil {
		return mir.Function{}, fmt.Errorf("drop ranges: %w", err)
	}
	must, err := conv.MustLiveRanges(ctx, rel, borrows)
	if err != nil {
		return mir.Function{}, fmt.Errorf("must-live ranges: %w", err)
	}
	shared, mutable, err := conv.BorrowRanges(ctx, rel, borrows)
	if err != nil {
		return mir.Function{}, fmt.Errorf("borrow ranges: %w", err)
	}
	dropped := rel.DroppedLocals()

	decls := make([]mir.Decl, len(body.Locals))
	for i, local := range body.Locals {
		id := uint32(i) // #nosec G115 -- locals are indexed by uint32 on the wire
		d := mir.Decl{
			Handle:        mir.NewVarHandle(id, body.FnID),
			Ty:            local.Ty,
			Lives:         live[id],
			MustLiveAt:    must[id],
			SharedBorrow:  shared[id],
			MutableBorrow: mutable[id],
			DropRange:     dropLive[id],
		}
		if v, ok := vars[id]; ok {
			d.User = true
			d.Name = v.Name
			d.Span = v.Range
		}
		_, d.Drop = dropped[id]
		decls[i] = d
	}

	return mir.Function{
		FnID:        body.FnID,
		BasicBlocks: blocks,
		Decls:       decls,
	}, nil
}
