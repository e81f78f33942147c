package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owl/internal/mir"
	"owl/internal/project"
	"owl/internal/source"
)

func sampleFunction() mir.Function {
	h := mir.NewVarHandle(1, 3)
	return mir.Function{
		FnID: 3,
		BasicBlocks: []mir.BasicBlock{{
			Statements: []mir.Statement{{
				Kind:   mir.StmtAssign,
				Target: h,
				Range:  source.Range{From: 4, Until: 9},
			}},
			Terminator: &mir.Terminator{Kind: mir.TermDrop, Local: h, Range: source.Range{From: 10, Until: 11}},
		}},
		Decls: []mir.Decl{{
			Handle: h,
			Ty:     "String",
			User:   true,
			Name:   "s",
			Span:   source.Range{From: 4, Until: 5},
			Lives:  []source.Range{{From: 4, Until: 11}},
			Drop:   true,
		}},
	}
}

func sampleKey() Key {
	return Key{File: project.SumString("fn main() {}"), Body: project.SumString("body")}
}

func TestDataGetPut(t *testing.T) {
	d := NewData()
	_, ok := d.Get(sampleKey())
	assert.False(t, ok)
	d.Put(sampleKey(), sampleFunction())
	fn, ok := d.Get(sampleKey())
	require.True(t, ok)
	assert.Equal(t, uint32(3), fn.FnID)
	assert.Equal(t, 1, d.Len())
}

func testBackends(t *testing.T) map[string]Backend {
	t.Helper()
	plain, err := NewFileBackend(t.TempDir(), false)
	require.NoError(t, err)
	packed, err := NewFileBackend(t.TempDir(), true)
	require.NoError(t, err)
	db, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Backend{"file": plain, "xz": packed, "sqlite": db}
}

func TestBackendRoundTrip(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := b.Load("app")
			require.NoError(t, err)
			assert.Equal(t, 0, empty.Len())

			d := NewData()
			d.Put(sampleKey(), sampleFunction())
			require.NoError(t, b.Save("app", d))

			got, err := b.Load("app")
			require.NoError(t, err)
			fn, ok := got.Get(sampleKey())
			require.True(t, ok)
			assert.Equal(t, sampleFunction().Decls[0].Lives, fn.Decls[0].Lives)
			assert.Equal(t, "s", fn.Decls[0].Name)
			require.NotNil(t, fn.BasicBlocks[0].Terminator)
			assert.Equal(t, mir.TermDrop, fn.BasicBlocks[0].Terminator.Kind)

			other, err := b.Load("other")
			require.NoError(t, err)
			assert.Equal(t, 0, other.Len())

			require.NoError(t, b.Drop())
			dropped, err := b.Load("app")
			require.NoError(t, err)
			assert.Equal(t, 0, dropped.Len())
		})
	}
}

func TestFileBackendRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.mp"), []byte("not msgpack"), 0o644))
	_, err = b.Load("app")
	assert.Error(t, err)
}

func TestSessionFallsBackOnUnreadableStore(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.mp"), []byte{0xc1}, 0o644))

	ctx := context.Background()
	s := NewSession(b, "app")
	_, ok := s.Get(ctx, sampleKey())
	assert.False(t, ok)

	s.Insert(ctx, sampleKey(), sampleFunction())
	require.NoError(t, s.Persist(ctx))

	again := NewSession(b, "app")
	_, ok = again.Get(ctx, sampleKey())
	assert.True(t, ok)
	hits, misses := again.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 0, misses)
}

func TestDisabledSessionAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	s := NewSession(nil, "app")
	s.Insert(ctx, sampleKey(), sampleFunction())
	_, ok := s.Get(ctx, sampleKey())
	assert.False(t, ok)
	assert.NoError(t, s.Persist(ctx))
}

func TestOpen(t *testing.T) {
	b, err := Open(Options{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = Open(Options{Enabled: true, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)

	b, err = Open(Options{Enabled: true, Dir: t.TempDir(), Backend: BackendSQLite})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteBackend{}, b)
	require.NoError(t, b.Close())

	_, err = Open(Options{Enabled: true, Dir: t.TempDir(), Backend: "redis"})
	assert.Error(t, err)

	_, err = Open(Options{Enabled: true})
	assert.ErrorIs(t, err, ErrNoDir)
}

func TestFileBackendKeepsSimilarNamesApart(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir, false)
	require.NoError(t, err)

	one := NewData()
	one.Put(sampleKey(), sampleFunction())
	two := NewData()
	two.Put(sampleKey(), sampleFunction())
	two.Put(Key{File: sampleKey().File, Body: project.SumString("other")}, sampleFunction())

	names := []string{"a/b", "a_b", "a:b", "../x"}
	for _, name := range names {
		require.NoError(t, b.Save(name, one))
	}
	require.NoError(t, b.Save("a_b", two))

	got, err := b.Load("a/b")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	got, err = b.Load("a_b")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	crates, err := b.Crates()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a/b": 1, "a_b": 2, "a:b": 1, "../x": 1}, crates)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(names))
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "x.mp"))
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteCrates(t *testing.T) {
	db, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	d := NewData()
	d.Put(sampleKey(), sampleFunction())
	d.Put(Key{File: sampleKey().File, Body: project.SumString("other")}, sampleFunction())
	require.NoError(t, db.Save("app", d))
	crates, err := db.Crates()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"app": 2}, crates)
}

func TestListCrates(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			lister, ok := b.(Lister)
			require.True(t, ok)
			d := NewData()
			d.Put(sampleKey(), sampleFunction())
			require.NoError(t, b.Save("app", d))
			require.NoError(t, b.Save("dep", NewData()))

			crates, err := lister.Crates()
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"app": 1}, withEntries(crates))
			require.NoError(t, b.Drop())
			crates, err = lister.Crates()
			require.NoError(t, err)
			assert.Empty(t, crates)
		})
	}
}

// withEntries drops empty crates; the sqlite backend stores none for them.
func withEntries(m map[string]int) map[string]int {
	out := make(map[string]int)
	for k, v := range m {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}
