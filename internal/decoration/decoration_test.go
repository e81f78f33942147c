package decoration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owl/internal/mir"
	"owl/internal/source"
)

func rng(from, until source.Loc) source.Range { return source.Range{From: from, Until: until} }

func TestKindTable(t *testing.T) {
	tests := []struct {
		kind     Kind
		name     string
		code     string
		severity Severity
		show     bool
	}{
		{KindLifetime, "lifetime", "owl:lifetime", SeverityHint, false},
		{KindImmBorrow, "imm_borrow", "owl:imm-borrow", SeverityHint, true},
		{KindMutBorrow, "mut_borrow", "owl:mut-borrow", SeverityInformation, true},
		{KindMove, "move", "owl:move", SeverityWarning, true},
		{KindCall, "call", "owl:call", SeverityInformation, true},
		{KindSharedMut, "shared_mut", "owl:shared-mut", SeverityWarning, true},
		{KindOutlive, "outlive", "owl:outlive", SeverityError, true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Deco{Kind: tt.kind}
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.code, d.Code())
			assert.Equal(t, tt.severity, d.Severity())
			assert.Equal(t, tt.show, d.ShouldShow())
			assert.Equal(t, uint8(i), tt.kind.Priority())

			var back Kind
			require.NoError(t, back.UnmarshalText([]byte(tt.name)))
			assert.Equal(t, tt.kind, back)
		})
	}
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("borrow")))
}

func TestItemJSON(t *testing.T) {
	d := Deco{Kind: KindMove, Local: mir.NewVarHandle(1, 2), Range: rng(4, 6), HoverText: "variable moved"}
	data, err := json.Marshal(d.Item("ab\ncdefg"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "move",
		"local": {"id": 1, "fn_id": 2},
		"range": {"start": {"line": 1, "character": 1}, "end": {"line": 1, "character": 3}},
		"hover_text": "variable moved",
		"overlapped": false
	}`, string(data))
}

func TestDiagnosticsSkipLifetime(t *testing.T) {
	decos := []Deco{
		{Kind: KindLifetime, Range: rng(0, 2)},
		{Kind: KindOutlive, Range: rng(1, 2), HoverText: "x"},
	}
	diags := Diagnostics("abc", decos)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "owl", diags[0].Source)
	assert.Equal(t, "owl:outlive", diags[0].Code)
}

// fnWith builds function 1 with user variables a (_1) and b (_2) and the
// given statements and terminators in one block.
func fnWith(stmts []mir.Statement, term *mir.Terminator) mir.Function {
	return mir.Function{
		FnID: 1,
		Decls: []mir.Decl{
			{Handle: mir.NewVarHandle(1, 1), Ty: "i32", User: true, Name: "a", Span: rng(0, 10)},
			{Handle: mir.NewVarHandle(2, 1), Ty: "i32", User: true, Name: "b", Span: rng(2, 4)},
			{Handle: mir.NewVarHandle(3, 1), Ty: "std::future::ResumeTy"},
			{Handle: mir.NewVarHandle(4, 1), Ty: "i32"},
		},
		BasicBlocks: []mir.BasicBlock{{Statements: stmts, Terminator: term}},
	}
}

func assign(target uint32, kind mir.RvalueKind, r source.Range) mir.Statement {
	return mir.Statement{
		Kind:   mir.StmtAssign,
		Target: mir.NewVarHandle(9, 1),
		Range:  r,
		Rvalue: mir.Rvalue{Kind: kind, Target: mir.NewVarHandle(target, 1), Range: r},
	}
}

func selectAt(fn mir.Function, pos source.Loc) (mir.VarHandle, bool) {
	sel := NewSelector(pos)
	mir.Walk(&fn, sel)
	return sel.Selected()
}

func TestSelectorPrecedence(t *testing.T) {
	t.Run("narrower declaration wins", func(t *testing.T) {
		h, ok := selectAt(fnWith(nil, nil), 3)
		require.True(t, ok)
		assert.Equal(t, uint32(2), h.Local)
	})
	t.Run("declaration is never replaced", func(t *testing.T) {
		fn := fnWith([]mir.Statement{assign(4, mir.RvalueMove, rng(6, 7))}, nil)
		h, ok := selectAt(fn, 6)
		require.True(t, ok)
		assert.Equal(t, uint32(1), h.Local)
	})
	t.Run("narrower borrow replaces call", func(t *testing.T) {
		fn := fnWith(nil, &mir.Terminator{Kind: mir.TermCall, Local: mir.NewVarHandle(4, 1), Range: rng(18, 30)})
		fn.BasicBlocks = append(fn.BasicBlocks, mir.BasicBlock{
			Statements: []mir.Statement{assign(1, mir.RvalueBorrow, rng(20, 22))},
		})
		h, ok := selectAt(fn, 21)
		require.True(t, ok)
		assert.Equal(t, uint32(1), h.Local)
	})
	t.Run("call never replaces a borrow", func(t *testing.T) {
		fn := fnWith(
			[]mir.Statement{assign(1, mir.RvalueBorrow, rng(20, 22))},
			&mir.Terminator{Kind: mir.TermCall, Local: mir.NewVarHandle(4, 1), Range: rng(21, 22)},
		)
		h, ok := selectAt(fn, 21)
		require.True(t, ok)
		assert.Equal(t, uint32(1), h.Local)
	})
	t.Run("cursor at range end is inside", func(t *testing.T) {
		fn := fnWith([]mir.Statement{assign(4, mir.RvalueMove, rng(20, 22))}, nil)
		h, ok := selectAt(fn, 22)
		require.True(t, ok)
		assert.Equal(t, uint32(4), h.Local)
	})
	t.Run("async placeholders are not candidates", func(t *testing.T) {
		fn := fnWith([]mir.Statement{assign(3, mir.RvalueMove, rng(20, 22))}, nil)
		_, ok := selectAt(fn, 21)
		assert.False(t, ok)
	})
	t.Run("nothing under cursor", func(t *testing.T) {
		_, ok := selectAt(fnWith(nil, nil), 50)
		assert.False(t, ok)
	})
}

func TestSelectorPrefersWiderCall(t *testing.T) {
	inner := mir.Function{
		FnID:  1,
		Decls: []mir.Decl{{Handle: mir.NewVarHandle(4, 1), Ty: "i32"}, {Handle: mir.NewVarHandle(5, 1), Ty: "i32"}},
		BasicBlocks: []mir.BasicBlock{
			{Terminator: &mir.Terminator{Kind: mir.TermCall, Local: mir.NewVarHandle(4, 1), Range: rng(12, 15)}},
			{Terminator: &mir.Terminator{Kind: mir.TermCall, Local: mir.NewVarHandle(5, 1), Range: rng(10, 20)}},
		},
	}
	h, ok := selectAt(inner, 13)
	require.True(t, ok)
	assert.Equal(t, uint32(5), h.Local)
}

func TestCalculatorKeepsWidestCall(t *testing.T) {
	h := mir.NewVarHandle(4, 1)
	fn := mir.Function{
		FnID:  1,
		Decls: []mir.Decl{{Handle: h, Ty: "i32"}},
		BasicBlocks: []mir.BasicBlock{
			{Terminator: &mir.Terminator{Kind: mir.TermCall, Local: h, Range: rng(12, 15)}},
			{Terminator: &mir.Terminator{Kind: mir.TermCall, Local: h, Range: rng(10, 20)}},
			{Terminator: &mir.Terminator{Kind: mir.TermCall, Local: h, Range: rng(11, 14)}},
			{Terminator: &mir.Terminator{Kind: mir.TermCall, Local: h, Range: rng(30, 32)}},
		},
	}
	calc := NewCalculator(h)
	mir.Walk(&fn, calc)
	var calls []source.Range
	for _, d := range calc.Decorations() {
		if d.Kind == KindCall {
			calls = append(calls, d.Range)
		}
	}
	assert.Equal(t, []source.Range{rng(10, 20), rng(30, 32)}, calls)
}

func TestCalculatorDeclDecorations(t *testing.T) {
	h := mir.NewVarHandle(1, 1)
	fn := mir.Function{
		FnID: 1,
		Decls: []mir.Decl{{
			Handle:        h,
			Ty:            "String",
			User:          true,
			Name:          "s",
			Span:          rng(0, 1),
			Lives:         []source.Range{rng(0, 5)},
			DropRange:     []source.Range{rng(0, 8)},
			Drop:          true,
			SharedBorrow:  []source.Range{rng(2, 6)},
			MutableBorrow: []source.Range{rng(4, 7)},
			MustLiveAt:    []source.Range{rng(6, 12)},
		}},
	}
	calc := NewCalculator(h)
	mir.Walk(&fn, calc)
	got := calc.Decorations()
	require.Len(t, got, 3)
	assert.Equal(t, Deco{Kind: KindLifetime, Local: h, Range: rng(0, 8), HoverText: "lifetime of variable `s`"}, got[0])
	assert.Equal(t, Deco{Kind: KindSharedMut, Local: h, Range: rng(4, 6), HoverText: "immutable and mutable borrows of variable `s` exist here"}, got[1])
	assert.Equal(t, Deco{Kind: KindOutlive, Local: h, Range: rng(8, 12), HoverText: "variable `s` is required to live here"}, got[2])
}

func TestCalculatorAnonymousHover(t *testing.T) {
	h := mir.NewVarHandle(2, 1)
	fn := mir.Function{FnID: 1, Decls: []mir.Decl{{Handle: h, Ty: "i32", Lives: []source.Range{rng(1, 2)}}}}
	calc := NewCalculator(h)
	mir.Walk(&fn, calc)
	require.Len(t, calc.Decorations(), 1)
	assert.Equal(t, "lifetime of anonymous variable", calc.Decorations()[0].HoverText)
}

func TestResolveOverlaps(t *testing.T) {
	h := mir.NewVarHandle(1, 1)
	life := Deco{Kind: KindLifetime, Local: h, Range: rng(0, 10)}
	move := Deco{Kind: KindMove, Local: h, Range: rng(3, 5)}
	out := Deco{Kind: KindOutlive, Local: h, Range: rng(4, 12)}

	got := ResolveOverlaps([]Deco{out, move, life, move})
	want := []Deco{
		life.withRange(rng(3, 5), true),
		life.withRange(rng(0, 3), false),
		life.withRange(rng(5, 10), true),
		move.withRange(rng(4, 5), true),
		move.withRange(rng(3, 4), false),
		out,
	}
	assert.Equal(t, want, got)
}

func TestResolveOverlapsMergesSameSpot(t *testing.T) {
	h := mir.NewVarHandle(1, 1)
	wide := Deco{Kind: KindImmBorrow, Local: h, Range: rng(0, 10)}
	tail := Deco{Kind: KindImmBorrow, Local: h, Range: rng(5, 10)}

	got := ResolveOverlaps([]Deco{wide, tail})
	assert.Equal(t, []Deco{
		wide.withRange(rng(5, 10), true),
		wide.withRange(rng(0, 5), false),
	}, got)

	other := Deco{Kind: KindImmBorrow, Local: mir.NewVarHandle(1, 2), Range: rng(5, 10)}
	got = ResolveOverlaps([]Deco{wide, other})
	assert.Len(t, got, 3, "different locals are kept apart")
}

func TestResolveOverlapsDisjointUntouched(t *testing.T) {
	a := Deco{Kind: KindImmBorrow, Range: rng(0, 2)}
	b := Deco{Kind: KindMutBorrow, Range: rng(2, 4)}
	assert.Equal(t, []Deco{a, b}, ResolveOverlaps([]Deco{b, a}))
	assert.Empty(t, ResolveOverlaps(nil))
}
