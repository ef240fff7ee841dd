package symtab_test

import (
	"testing"

	"github.com/cplteam/cplc/internal/intern"
	"github.com/cplteam/cplc/internal/symtab"
	"github.com/cplteam/cplc/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commit(in *intern.Table, s string) (token.Handle, []byte) {
	in.Begin()
	for _, ch := range []byte(s) {
		in.Push(ch)
	}
	return in.Commit(), []byte(s)
}

func TestScopeInvariant(t *testing.T) {
	in := intern.New()
	tab := symtab.New(in, 0, 0)

	hx, bx := commit(in, "x")
	_, err := tab.Declare(bx, hx, 1, symtab.KindVariable)
	require.NoError(t, err)

	hy, by := commit(in, "y")
	_, err = tab.Declare(by, hy, 2, symtab.KindLocalVar)
	require.NoError(t, err)

	tab.RemoveAtOrAbove(2)

	_, err = tab.Lookup(by)
	assert.Error(t, err, "y was declared at depth 2 and should be gone")

	sym, err := tab.Lookup(bx)
	require.NoError(t, err)
	assert.Equal(t, 1, sym.Scope, "x was declared at depth 1 and survives RemoveAtOrAbove(2)")
}

func TestShadowingReturnsInnerBinding(t *testing.T) {
	in := intern.New()
	tab := symtab.New(in, 0, 0)

	h1, b1 := commit(in, "x")
	_, err := tab.Declare(b1, h1, 1, symtab.KindVariable)
	require.NoError(t, err)

	h2, b2 := commit(in, "x")
	inner, err := tab.Declare(b2, h2, 2, symtab.KindLocalVar)
	require.NoError(t, err)

	got, err := tab.Lookup(b1)
	require.NoError(t, err)
	assert.Same(t, inner, got, "Lookup must return the innermost (most recent) binding")

	tab.RemoveAtOrAbove(2)
	outer, err := tab.Lookup(b1)
	require.NoError(t, err)
	assert.Equal(t, 1, outer.Scope)
}

func TestDuplicateDeclarationSameScopeErrors(t *testing.T) {
	in := intern.New()
	tab := symtab.New(in, 0, 0)

	h1, b1 := commit(in, "x")
	_, err := tab.Declare(b1, h1, 1, symtab.KindVariable)
	require.NoError(t, err)

	h2, b2 := commit(in, "x")
	_, err = tab.Declare(b2, h2, 1, symtab.KindVariable)
	assert.Error(t, err)
}

func TestLookupUndeclaredErrors(t *testing.T) {
	in := intern.New()
	tab := symtab.New(in, 0, 0)
	_, err := tab.Lookup([]byte("nope"))
	assert.Error(t, err)
}

func TestConfigurableHashSizeBoundsBucketIndex(t *testing.T) {
	in := intern.New()
	tab := symtab.New(in, 3, 100)

	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		h, b := commit(in, name)
		_, err := tab.Declare(b, h, 1, symtab.KindVariable)
		require.NoError(t, err)
		assert.Less(t, tab.Hash(b), 3, "the hash index must respect the configured bucket count")
	}

	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		sym, err := tab.Lookup([]byte(name))
		require.NoError(t, err)
		assert.Equal(t, name == "delta" || name == "gamma" || name == "beta" || name == "alpha", sym != nil)
	}
}

func TestNonPositiveSizesFallBackToDefaults(t *testing.T) {
	in := intern.New()
	tab := symtab.New(in, 0, 0)

	h, b := commit(in, "x")
	assert.Less(t, tab.Hash(b), symtab.DefaultHashSize)
	_, err := tab.Declare(b, h, 1, symtab.KindVariable)
	require.NoError(t, err)
}

func TestDumpSortedLexicographically(t *testing.T) {
	in := intern.New()
	tab := symtab.New(in, 0, 0)

	for _, name := range []string{"zebra", "apple", "mango"} {
		h, b := commit(in, name)
		_, err := tab.Declare(b, h, 1, symtab.KindVariable)
		require.NoError(t, err)
	}

	entries := tab.Dump(1)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"apple", "mango", "zebra"}, []string{entries[0].Name, entries[1].Name, entries[2].Name})
}
