package token_test

import (
	"sort"
	"testing"

	"github.com/cplteam/cplc/internal/token"
	"github.com/stretchr/testify/assert"
)

func TestKeywordsContiguousAndSorted(t *testing.T) {
	assert.Equal(t, int(token.LastKeyword-token.FirstKeyword)+1, len(token.Keywords),
		"keyword range must be exactly as wide as the Keywords table")

	assert.True(t, sort.SliceIsSorted(token.Keywords, func(i, j int) bool {
		return token.Keywords[i].Spelling < token.Keywords[j].Spelling
	}), "Keywords must stay alphabetically sorted for the lexer's binary search")

	for i, kw := range token.Keywords {
		assert.Equal(t, token.FirstKeyword+token.Code(i), kw.Code,
			"keyword codes must be contiguous in Keywords order")
	}
}

func TestCodeStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "WHILE", token.While.String())
	assert.Equal(t, ";", token.Semicolon.String())
	assert.Contains(t, token.Code(999).String(), "Code(999)")
}
