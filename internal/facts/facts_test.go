package facts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owl/internal/frontend"
	"owl/internal/lower"
	"owl/internal/source"
)

// lineLayout places statement s of block b at [10*(b*4+s), 10*(b*4+s)+10).
type lineLayout struct {
	hidden map[[2]uint32]bool
}

func (l lineLayout) RangeAt(block, stmt uint32) (source.Range, bool) {
	if l.hidden[[2]uint32{block, stmt}] {
		return source.Range{}, false
	}
	from := source.Loc(10 * (block*4 + stmt))
	return source.Range{From: from, Until: from + 10}, true
}

// two blocks of three statements each: points 0..7 for block 0, 8..15 for block 1
func testConverter() *Converter {
	return &Converter{
		Locations: frontend.NewLocationTable([]int{3, 3}),
		Layout:    lineLayout{},
		Limit:     2,
	}
}

func TestToRangesPairsStartsAndMids(t *testing.T) {
	c := testConverter()
	// start and mid of statements 0 and 1 in block 0
	got := c.ToRanges([]frontend.Point{3, 0, 1, 2, 2})
	assert.Equal(t, []source.Range{{From: 0, Until: 20}}, got)
}

func TestToRangesSkipsUnresolved(t *testing.T) {
	c := testConverter()
	c.Layout = lineLayout{hidden: map[[2]uint32]bool{{0, 1}: true}}
	got := c.ToRanges([]frontend.Point{0, 1, 2, 3, 4, 5})
	assert.Equal(t, []source.Range{{From: 0, Until: 10}, {From: 20, Until: 30}}, got)

	assert.Empty(t, c.ToRanges([]frontend.Point{99}))
	assert.Empty(t, c.ToRanges(nil))
}

func TestLiveAndDropRanges(t *testing.T) {
	c := testConverter()
	rel := &frontend.Relations{
		VarLiveOnEntry: map[frontend.Point][]uint32{
			0: {1}, 1: {1, 2}, 2: {1}, 3: {1},
			8: {2}, 9: {2},
		},
		VarDropLiveOnEntry: map[frontend.Point][]uint32{
			8: {1}, 9: {1},
		},
	}
	live, err := c.LiveRanges(context.Background(), rel)
	require.NoError(t, err)
	assert.Equal(t, []source.Range{{From: 0, Until: 20}}, live[1])
	// start (1,0) pairs with mid (0,0), an empty envelope
	assert.Empty(t, live[2])

	drop, err := c.DropRanges(context.Background(), rel)
	require.NoError(t, err)
	assert.Equal(t, []source.Range{{From: 40, Until: 50}}, drop[1])
	assert.NotContains(t, drop, uint32(2))
}

func testBorrows() *lower.BorrowMap {
	return lower.NewBorrowMap(&frontend.Body{
		Borrows: []frontend.RawBorrow{
			{Borrowed: 1, Assigned: 2},
			{Borrowed: 1, Assigned: 3, Mutable: true},
		},
	})
}

func TestBorrowRanges(t *testing.T) {
	c := testConverter()
	rel := &frontend.Relations{
		LoanLiveAt: map[frontend.Point][]frontend.Loan{
			0: {0}, 1: {0},
			2: {1}, 3: {1}, 4: {1, 7}, 5: {1},
		},
	}
	shared, mutable, err := c.BorrowRanges(context.Background(), rel, testBorrows())
	require.NoError(t, err)
	assert.Equal(t, []source.Range{{From: 0, Until: 10}}, shared[1])
	assert.Equal(t, []source.Range{{From: 10, Until: 30}}, mutable[1])
	assert.Len(t, shared, 1)
}

func TestMustLiveRangesPropagatesTransitively(t *testing.T) {
	c := testConverter()
	rel := &frontend.Relations{
		// region 9 is live at statement (1,0) only
		OriginLiveOnEntry: map[frontend.Point][]frontend.Origin{8: {9}, 9: {9}},
		// 5 outlives 6, 6 outlives 9
		Subset: map[frontend.Point]map[frontend.Origin][]frontend.Origin{
			0: {5: {6}},
			4: {6: {9}},
		},
		// region 5 holds loan 0 somewhere
		OriginContainsLoanAt: map[frontend.Point]map[frontend.Origin][]frontend.Loan{
			2: {5: {0}},
		},
	}
	must, err := c.MustLiveRanges(context.Background(), rel, testBorrows())
	require.NoError(t, err)
	want := []source.Range{{From: 40, Until: 50}}
	assert.Equal(t, want, must[1], "borrowed local")
	assert.Equal(t, want, must[2], "reference holder")
	assert.NotContains(t, must, uint32(3))
}

func TestConvertHonoursCancellation(t *testing.T) {
	c := testConverter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rel := &frontend.Relations{VarLiveOnEntry: map[frontend.Point][]uint32{0: {1}, 1: {1}}}
	_, err := c.LiveRanges(ctx, rel)
	assert.ErrorIs(t, err, context.Canceled)
}
