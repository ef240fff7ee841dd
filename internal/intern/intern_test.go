package intern_test

import (
	"testing"

	"github.com/cplteam/cplc/internal/intern"
	"github.com/cplteam/cplc/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginPushCommit(t *testing.T) {
	tab := intern.New()

	tab.Begin()
	for _, ch := range []byte("hello") {
		tab.Push(ch)
	}
	h := tab.Commit()

	assert.Equal(t, "hello", tab.String(h))
}

func TestHandleStableAcrossManyCommits(t *testing.T) {
	tab := intern.New()

	handles := make([]token.Handle, 0, 200)
	for i := 0; i < 200; i++ {
		tab.Begin()
		for _, ch := range []byte("word") {
			tab.Push(ch)
		}
		handles = append(handles, tab.Commit())
	}

	for _, h := range handles {
		require.Equal(t, "word", tab.String(h))
	}
}

func TestBeginDiscardsTentative(t *testing.T) {
	tab := intern.New()

	tab.Begin()
	tab.Push('x')
	tab.Push('y')

	// Abandon the tentative spelling without committing.
	tab.Begin()
	tab.Push('z')
	h := tab.Commit()

	assert.Equal(t, "z", tab.String(h))
}

func TestHighBitStripped(t *testing.T) {
	tab := intern.New()

	tab.Begin()
	tab.Push(0x80 | 'A')
	h := tab.Commit()

	assert.Equal(t, "A", tab.String(h))
}

func TestEqual(t *testing.T) {
	tab := intern.New()

	tab.Begin()
	tab.Push('f')
	tab.Push('o')
	tab.Push('o')
	h := tab.Commit()

	assert.True(t, tab.Equal(h, []byte("foo"), 100))
	assert.False(t, tab.Equal(h, []byte("bar"), 100))
	assert.False(t, tab.Equal(h, []byte("foobar"), 100))
}

func TestPeekTentative(t *testing.T) {
	tab := intern.New()

	tab.Begin()
	tab.Push('a')
	tab.Push('b')
	tab.Push('c')

	assert.Equal(t, []byte("abc"), tab.PeekTentative(3))
}
