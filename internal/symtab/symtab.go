// Package symtab implements the scoped, hash-chained symbol table:
// HASHSIZE=997 buckets, declaration-recency ordered chains, and the
// probe/enter/remove_at_or_above/dump operations a nested-scope
// compiler needs.
package symtab

import (
	"fmt"
	"sort"

	"github.com/cplteam/cplc/internal/intern"
	"github.com/cplteam/cplc/internal/token"
)

// DefaultHashSize is the default number of hash buckets, selected by
// New when given a non-positive hashSize. Must be prime for good
// dispersion across the table.
const DefaultHashSize = 997

// DefaultMaxHashLength is the default number of leading bytes of a
// spelling taken into account when hashing and when comparing for
// equality in Probe, selected by New when given a non-positive
// maxHashLength.
const DefaultMaxHashLength = 100

// Kind classifies a declared name.
type Kind int

const (
	KindUnset Kind = iota
	KindProgram
	KindVariable // global variable
	KindProcedure
	KindFunction
	KindLocalVar
	KindValuePar
	KindRefPar
)

var kindNames = map[Kind]string{
	KindUnset:     "unset",
	KindProgram:   "program",
	KindVariable:  "variable",
	KindProcedure: "procedure",
	KindFunction:  "function",
	KindLocalVar:  "local variable",
	KindValuePar:  "value parameter",
	KindRefPar:    "ref parameter",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Symbol is one declaration: spelling, scope depth, kind, parameter
// bookkeeping (procedures/functions), resolved address, and the chain
// pointer to the next symbol in the same bucket.
type Symbol struct {
	Spelling     token.Handle
	Scope        int
	Kind         Kind
	ParamCount   int
	ParamTypeMap int
	Address      int // data offset, instruction address, or -1 if unbound
	next         *Symbol
}

// Table is the hash-chained scoped symbol directory. Within one
// bucket the chain is ordered by declaration recency: the most recent
// declaration is at the head, so resolution automatically returns the
// innermost in-scope binding.
type Table struct {
	buckets       []*Symbol
	maxHashLength int
	interner      *intern.Table
}

// New constructs an empty symbol table with hashSize buckets (should
// be prime for even dispersion), hashing and comparing at most
// maxHashLength leading bytes of each spelling, backed by interner in
// for resolving spellings. A non-positive hashSize or maxHashLength
// selects DefaultHashSize/DefaultMaxHashLength.
func New(in *intern.Table, hashSize, maxHashLength int) *Table {
	if hashSize <= 0 {
		hashSize = DefaultHashSize
	}
	if maxHashLength <= 0 {
		maxHashLength = DefaultMaxHashLength
	}
	return &Table{
		buckets:       make([]*Symbol, hashSize),
		maxHashLength: maxHashLength,
		interner:      in,
	}
}

// Hash sums the 7-bit character codes of the first maxHashLength bytes
// of spelling, then reduces modulo the table's bucket count.
func (t *Table) Hash(spelling []byte) int {
	n := len(spelling)
	if n > t.maxHashLength {
		n = t.maxHashLength
	}
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(spelling[i] & 0x7f)
	}
	return sum % len(t.buckets)
}

// Probe walks the bucket chain for spelling and returns the first (and
// therefore most recently declared) matching symbol, or nil, along
// with the spelling's hash index.
func (t *Table) Probe(spelling []byte) (*Symbol, int) {
	h := t.Hash(spelling)
	for s := t.buckets[h]; s != nil; s = s.next {
		if t.interner.Equal(s.Spelling, spelling, t.maxHashLength) {
			return s, h
		}
	}
	return nil, h
}

// Enter prepends a fresh record at the head of bucket hash. The caller
// is responsible for populating Scope/Kind/Address and friends.
func (t *Table) Enter(spelling token.Handle, hash int) *Symbol {
	s := &Symbol{
		Spelling: spelling,
		Kind:     KindUnset,
		Address:  -1,
		next:     t.buckets[hash],
	}
	t.buckets[hash] = s
	return s
}

// RemoveAtOrAbove strips the head of every bucket's chain while the
// head's scope is >= depth. Because the chain head is always the most
// recent declaration, and all enters at depth d occurred after all
// enters at depth < d, this reclaims exactly the entries of the
// closing scope.
func (t *Table) RemoveAtOrAbove(depth int) {
	for i := range t.buckets {
		for t.buckets[i] != nil && t.buckets[i].Scope >= depth {
			t.buckets[i] = t.buckets[i].next
		}
	}
}

// Declare implements the declaration contract: probe for spelling; if
// the innermost existing binding is at the same
// depth, it's a duplicate declaration (error); otherwise (no binding,
// or an outer binding being legally shadowed) enter a fresh symbol at
// depth with the requested kind.
func (t *Table) Declare(spelling []byte, handle token.Handle, depth int, kind Kind) (*Symbol, error) {
	existing, hash := t.Probe(spelling)
	if existing != nil && existing.Scope == depth {
		return nil, fmt.Errorf("%q already declared at this scope", string(spelling))
	}
	sym := t.Enter(handle, hash)
	sym.Scope = depth
	sym.Kind = kind
	return sym, nil
}

// Lookup implements the resolution contract: probe for spelling and
// return the symbol, or an error if undeclared.
func (t *Table) Lookup(spelling []byte) (*Symbol, error) {
	sym, _ := t.Probe(spelling)
	if sym == nil {
		return nil, fmt.Errorf("identifier not declared: %s", string(spelling))
	}
	return sym, nil
}

// DumpEntry is one row of a Dump listing: a symbol paired with its
// resolved spelling, for lexicographic sorting.
type DumpEntry struct {
	Name string
	Sym  *Symbol
}

// Dump gathers symbols with scope >= depth, sorted lexicographically
// by spelling — a diagnostic used by the -dump-symbols CLI flag.
func (t *Table) Dump(depth int) []DumpEntry {
	var out []DumpEntry
	for _, head := range t.buckets {
		for s := head; s != nil; s = s.next {
			if s.Scope >= depth {
				out = append(out, DumpEntry{Name: t.interner.String(s.Spelling), Sym: s})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
