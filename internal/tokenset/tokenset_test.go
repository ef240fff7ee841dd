package tokenset_test

import (
	"testing"

	"github.com/cplteam/cplc/internal/token"
	"github.com/cplteam/cplc/internal/tokenset"
	"github.com/stretchr/testify/assert"
)

func TestAddContainsRemove(t *testing.T) {
	var s tokenset.Set
	assert.False(t, s.Contains(token.Semicolon))

	s.Add(token.Semicolon)
	assert.True(t, s.Contains(token.Semicolon))

	s.Remove(token.Semicolon)
	assert.False(t, s.Contains(token.Semicolon))
}

func TestNewAndInitFrom(t *testing.T) {
	s := tokenset.New(token.If, token.While, token.Identifier)
	assert.True(t, s.Contains(token.If))
	assert.True(t, s.Contains(token.While))
	assert.True(t, s.Contains(token.Identifier))
	assert.False(t, s.Contains(token.Do))
}

func TestUnion(t *testing.T) {
	a := tokenset.New(token.If, token.While)
	b := tokenset.New(token.Do, token.Then)
	u := tokenset.Union(a, b)

	for _, c := range []token.Code{token.If, token.While, token.Do, token.Then} {
		assert.True(t, u.Contains(c))
	}
	assert.False(t, u.Contains(token.Else))
}

func TestIntersection(t *testing.T) {
	a := tokenset.New(token.If, token.While, token.Do)
	b := tokenset.New(token.While, token.Do, token.Then)
	i := tokenset.Intersection(a, b)

	assert.True(t, i.Contains(token.While))
	assert.True(t, i.Contains(token.Do))
	assert.False(t, i.Contains(token.If))
	assert.False(t, i.Contains(token.Then))
}

func TestIntersectionEmpty(t *testing.T) {
	i := tokenset.Intersection()
	assert.False(t, i.Contains(token.If))
}

func TestWordIndexOutOfRangePanics(t *testing.T) {
	var s tokenset.Set
	assert.Panics(t, func() { s.Add(token.Code(-1)) })
	assert.Panics(t, func() { s.Add(token.Code(9999)) })
}

func TestCodesAscendingOrder(t *testing.T) {
	s := tokenset.New(token.While, token.Do, token.If)
	codes := s.Codes()

	assert.Len(t, codes, 3)
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i], "Codes must come back in ascending order")
	}
	assert.Contains(t, codes, token.If)
	assert.Contains(t, codes, token.Do)
	assert.Contains(t, codes, token.While)
}

func TestCodesEmptySet(t *testing.T) {
	var s tokenset.Set
	assert.Empty(t, s.Codes())
}
