package facts

import (
	"context"
	"slices"

	"owl/internal/frontend"
	"owl/internal/lower"
	"owl/internal/source"
)

// BorrowRanges returns, per borrowed variable, the ranges where a shared
// loan of it is live and the ranges where a mutable loan is live.
func (c *Converter) BorrowRanges(ctx context.Context, rel *frontend.Relations, borrows *lower.BorrowMap) (shared, mutable map[uint32][]source.Range, err error) {
	sharedPts := make(map[uint32][]frontend.Point)
	mutPts := make(map[uint32][]frontend.Point)
	for p, loans := range rel.LoanLiveAt {
		for _, loan := range loans {
			b, ok := borrows.Get(loan)
			if !ok {
				continue
			}
			if b.Mutable {
				mutPts[b.Borrowed] = append(mutPts[b.Borrowed], p)
			} else {
				sharedPts[b.Borrowed] = append(sharedPts[b.Borrowed], p)
			}
		}
	}
	if shared, err = c.convertAll(ctx, sharedPts); err != nil {
		return nil, nil, err
	}
	if mutable, err = c.convertAll(ctx, mutPts); err != nil {
		return nil, nil, err
	}
	return shared, mutable, nil
}

// MustLiveRanges returns the ranges where each variable is required to stay
// valid. A region must contain every point at which any region it outlives,
// directly or transitively, is live. Wherever a region holds a loan, both the
// borrowed variable and the one holding the reference must live at all of
// the region's required points.
func (c *Converter) MustLiveRanges(ctx context.Context, rel *frontend.Relations, borrows *lower.BorrowMap) (map[uint32][]source.Range, error) {
	regionPoints := make(map[frontend.Origin]map[frontend.Point]struct{})
	for p, origins := range rel.OriginLiveOnEntry {
		for _, o := range origins {
			set := regionPoints[o]
			if set == nil {
				set = make(map[frontend.Point]struct{})
				regionPoints[o] = set
			}
			set[p] = struct{}{}
		}
	}

	subsets := make(map[frontend.Origin]map[frontend.Origin]struct{})
	for _, bySup := range rel.Subset {
		for sup, subs := range bySup {
			set := subsets[sup]
			if set == nil {
				set = make(map[frontend.Origin]struct{})
				subsets[sup] = set
			}
			for _, sub := range subs {
				set[sub] = struct{}{}
			}
		}
	}

	regionMust := make(map[frontend.Origin]map[frontend.Point]struct{}, len(subsets))
	for sup := range subsets {
		must := make(map[frontend.Point]struct{})
		for sub := range reachable(subsets, sup) {
			for p := range regionPoints[sub] {
				must[p] = struct{}{}
			}
		}
		if len(must) > 0 {
			regionMust[sup] = must
		}
	}

	localPts := make(map[uint32]map[frontend.Point]struct{})
	mark := func(local uint32, pts map[frontend.Point]struct{}) {
		set := localPts[local]
		if set == nil {
			set = make(map[frontend.Point]struct{}, len(pts))
			localPts[local] = set
		}
		for p := range pts {
			set[p] = struct{}{}
		}
	}
	for _, byOrigin := range rel.OriginContainsLoanAt {
		for origin, loans := range byOrigin {
			must, ok := regionMust[origin]
			if !ok {
				continue
			}
			for _, loan := range loans {
				b, ok := borrows.Get(loan)
				if !ok {
					continue
				}
				mark(b.Assigned, must)
				mark(b.Borrowed, must)
			}
		}
	}

	byLocal := make(map[uint32][]frontend.Point, len(localPts))
	for local, set := range localPts {
		pts := make([]frontend.Point, 0, len(set))
		for p := range set {
			pts = append(pts, p)
		}
		slices.Sort(pts)
		byLocal[local] = pts
	}
	return c.convertAll(ctx, byLocal)
}

// reachable returns every region reachable from sup through the subset
// relation, excluding sup itself unless it lies on a cycle.
func reachable(subsets map[frontend.Origin]map[frontend.Origin]struct{}, sup frontend.Origin) map[frontend.Origin]struct{} {
	seen := make(map[frontend.Origin]struct{})
	stack := []frontend.Origin{sup}
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for sub := range subsets[o] {
			if _, ok := seen[sub]; ok {
				continue
			}
			seen[sub] = struct{}{}
			stack = append(stack, sub)
		}
	}
	return seen
}
