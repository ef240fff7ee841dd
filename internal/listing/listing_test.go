package listing_test

import (
	"strings"
	"testing"

	"github.com/cplteam/cplc/internal/intern"
	"github.com/cplteam/cplc/internal/listing"
	"github.com/cplteam/cplc/internal/source"
	"github.com/cplteam/cplc/internal/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteNumbersAndAnnotations(t *testing.T) {
	lines := []source.Line{
		{Number: 1, Text: []byte("x := 1")},
		{
			Number: 2,
			Text:   []byte("y := 2"),
			Annotations: []source.Annotation{
				{Column: 3, Message: "Expected ;"},
			},
		},
	}

	var sb strings.Builder
	require.NoError(t, listing.Write(&sb, lines))

	out := sb.String()
	assert.Contains(t, out, "  1 x := 1\n")
	assert.Contains(t, out, "  2 y := 2\n")
	assert.Contains(t, out, "    "+strings.Repeat(" ", 3)+"^\n")
	assert.Contains(t, out, "    Expected ;\n")
}

func TestWriteContinuationLineHasNoNumber(t *testing.T) {
	wide := strings.Repeat("x", source.DefaultWidth+10)
	lines := []source.Line{{Number: 1, Text: []byte(wide), Continuation: true}}

	var sb strings.Builder
	require.NoError(t, listing.Write(&sb, lines))

	assert.True(t, strings.HasPrefix(sb.String(), "    "+wide))
}

func TestWriteOrdinaryLongLineStillNumbered(t *testing.T) {
	// A line well past the old bogus 72-char cutoff, but under the real
	// buffer width and not flagged as a continuation, must still be
	// numbered: it is ordinary source text, not an overflow segment.
	ordinary := strings.Repeat("y", 200)
	lines := []source.Line{{Number: 7, Text: []byte(ordinary)}}

	var sb strings.Builder
	require.NoError(t, listing.Write(&sb, lines))

	assert.True(t, strings.HasPrefix(sb.String(), "  7 "+ordinary))
}

func TestDumpSymbolsSorted(t *testing.T) {
	in := intern.New()
	tab := symtab.New(in, 0, 0)

	for _, name := range []string{"beta", "alpha"} {
		in.Begin()
		for _, ch := range []byte(name) {
			in.Push(ch)
		}
		h := in.Commit()
		_, err := tab.Declare([]byte(name), h, 1, symtab.KindVariable)
		require.NoError(t, err)
	}

	var sb strings.Builder
	require.NoError(t, listing.DumpSymbols(&sb, tab))

	out := sb.String()
	assert.Less(t, strings.Index(out, "alpha"), strings.Index(out, "beta"))
}
