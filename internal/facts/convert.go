// Package facts turns the point-indexed relations reported by the borrow
// solver into per-variable source ranges.
package facts

import (
	"cmp"
	"context"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"owl/internal/frontend"
	"owl/internal/ranges"
	"owl/internal/source"
)

// Locator resolves a raw (block, statement) location to a source range.
type Locator interface {
	RangeAt(block, stmt uint32) (source.Range, bool)
}

// Converter maps sets of points to ranges for one body.
type Converter struct {
	Locations frontend.LocationTable
	Layout    Locator
	// Limit bounds the number of variables converted concurrently. Zero
	// means GOMAXPROCS.
	Limit int
}

// NewConverter prepares a converter for body resolved through layout.
func NewConverter(body *frontend.Body, layout Locator) *Converter {
	return &Converter{Locations: body.LocationTable(), Layout: layout}
}

type blockStmt struct{ block, stmt uint32 }

func compareBlockStmt(a, b blockStmt) int {
	if c := cmp.Compare(a.block, b.block); c != 0 {
		return c
	}
	return cmp.Compare(a.stmt, b.stmt)
}

// ToRanges converts points into eliminated ranges. Start and mid points are
// sorted separately and paired in order; each pair yields the range from the
// start statement's beginning to the mid statement's end. Pairs whose
// locations have no source range, or whose envelope is empty, are dropped.
func (c *Converter) ToRanges(points []frontend.Point) []source.Range {
	points = slices.Clone(points)
	slices.Sort(points)
	points = slices.Compact(points)

	var starts, mids []blockStmt
	for _, p := range points {
		rich, ok := c.Locations.Rich(p)
		if !ok {
			continue
		}
		bs := blockStmt{rich.Block, rich.Statement}
		if rich.Kind == frontend.PointStart {
			starts = append(starts, bs)
		} else {
			mids = append(mids, bs)
		}
	}
	slices.SortFunc(starts, compareBlockStmt)
	slices.SortFunc(mids, compareBlockStmt)

	n := min(len(starts), len(mids))
	out := make([]source.Range, 0, n)
	for i := 0; i < n; i++ {
		s, ok := c.Layout.RangeAt(starts[i].block, starts[i].stmt)
		if !ok {
			continue
		}
		m, ok := c.Layout.RangeAt(mids[i].block, mids[i].stmt)
		if !ok {
			continue
		}
		if r, ok := source.NewRange(s.From, m.Until); ok {
			out = append(out, r)
		}
	}
	return ranges.Eliminate(out)
}

// convertAll runs ToRanges for every key in parallel.
func (c *Converter) convertAll(ctx context.Context, byLocal map[uint32][]frontend.Point) (map[uint32][]source.Range, error) {
	out := make(map[uint32][]source.Range, len(byLocal))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	limit := c.Limit
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for local, points := range byLocal {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rs := c.ToRanges(points)
			mu.Lock()
			out[local] = rs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func invert(onEntry map[frontend.Point][]uint32) map[uint32][]frontend.Point {
	out := make(map[uint32][]frontend.Point)
	for p, locals := range onEntry {
		for _, l := range locals {
			out[l] = append(out[l], p)
		}
	}
	return out
}

// LiveRanges returns the accurate-live ranges of every variable.
func (c *Converter) LiveRanges(ctx context.Context, rel *frontend.Relations) (map[uint32][]source.Range, error) {
	return c.convertAll(ctx, invert(rel.VarLiveOnEntry))
}

// DropRanges returns the drop-live ranges of every variable.
func (c *Converter) DropRanges(ctx context.Context, rel *frontend.Relations) (map[uint32][]source.Range, error) {
	return c.convertAll(ctx, invert(rel.VarDropLiveOnEntry))
}
