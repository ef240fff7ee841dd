// Package intern provides the centralised backing store for identifier
// spellings: an append-only byte arena with a "tentative then commit"
// write protocol. A committed Handle is guaranteed stable and
// bytewise identical for the table's lifetime, even across arena
// growth.
package intern

import "github.com/cplteam/cplc/internal/token"

// defaultChunk is not used by Commit: each commit allocates its own
// chunk of exactly the committed length.
const defaultChunk = 4096

// Table is the interner's process-wide state: a list of committed
// chunks plus one tentative (uncommitted) buffer.
type Table struct {
	chunks    [][]byte // committed chunks; never mutated once appended
	tentative []byte   // bytes accumulated since the last Begin
}

// New returns an empty interner.
func New() *Table {
	return &Table{}
}

// Begin starts accumulating a new tentative string. Any bytes pushed
// since the previous Begin without an intervening Commit are
// discarded.
func (t *Table) Begin() {
	t.tentative = t.tentative[:0]
}

// Push appends a 7-bit-masked byte to the tentative string. High-bit
// stripping is inherited input sanitation: CPL source is byte-oriented
// ASCII.
func (t *Table) Push(ch byte) {
	t.tentative = append(t.tentative, ch&0x7f)
}

// Current returns a handle describing the tentative string without
// freezing it: Length is the number of bytes pushed so far and Offset
// is -1, so Table.Bytes rejects it. The tentative bytes are read with
// PeekTentative; callers that need a durable reference must call
// Commit.
func (t *Table) Current() token.Handle {
	return token.Handle{Offset: -1, Length: len(t.tentative)}
}

// PeekTentative returns the first n bytes of the tentative string
// without freezing it, for callers (the lexer's keyword check) that
// need to inspect the spelling before deciding whether to commit it.
func (t *Table) PeekTentative(n int) []byte {
	if n > len(t.tentative) {
		n = len(t.tentative)
	}
	return t.tentative[:n]
}

// Commit freezes the tentative string into the arena and returns a
// handle that remains valid and bytewise identical for the table's
// lifetime, independent of later arena growth.
func (t *Table) Commit() token.Handle {
	n := len(t.tentative)
	chunk := make([]byte, n)
	copy(chunk, t.tentative)
	idx := len(t.chunks)
	t.chunks = append(t.chunks, chunk)
	t.tentative = t.tentative[:0]
	// Offset is the index of this commit's own chunk, so a Handle never
	// needs to be relocated when later commits grow the arena — each
	// commit gets its own chunk rather than sharing a single growable
	// buffer.
	return token.Handle{Offset: idx, Length: n}
}

// Bytes resolves a committed handle back to its spelling.
func (t *Table) Bytes(h token.Handle) []byte {
	if h.Offset < 0 || h.Offset >= len(t.chunks) {
		panic("intern: handle from an uncommitted or foreign table")
	}
	return t.chunks[h.Offset][:h.Length]
}

// String resolves a committed handle to a Go string (a copy).
func (t *Table) String(h token.Handle) string {
	return string(t.Bytes(h))
}

// Equal reports whether handle h's spelling equals s, up to
// maxLength bytes, matching Probe's bytewise comparison cap.
func (t *Table) Equal(h token.Handle, s []byte, maxLength int) bool {
	a := t.Bytes(h)
	if len(a) > maxLength {
		a = a[:maxLength]
	}
	b := s
	if len(b) > maxLength {
		b = b[:maxLength]
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
