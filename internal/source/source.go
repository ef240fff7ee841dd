// Package source implements the character source: character delivery
// with one-character pushback, line/column tracking, tab expansion,
// and the two-line-buffer model (current/previous) that lets pushback
// cross a newline.
package source

import (
	"bufio"
	"fmt"
	"io"
)

// EOF is the end-of-input sentinel returned by ReadChar.
const EOF = -1

// MinTabWidth and MaxTabWidth bound the legal tab-width range.
const (
	MinTabWidth = 3
	MaxTabWidth = 8
	// DefaultWidth is the default line-buffer capacity.
	DefaultWidth = 256
	// DefaultMaxAnnotations is the default K, the number of pending
	// error annotations a line buffer can hold, selected by New when
	// given a non-positive maxAnnotations.
	DefaultMaxAnnotations = 5
)

// annotation is one pending (column, message) error recorded against a
// line buffer.
type annotation struct {
	Column  int
	Message string
}

// lineBuffer holds one source line's text and up to maxAnnotations
// pending error annotations (the insertion column is Source.col). It also
// tracks whether it is itself a continuation segment: the tail of a
// physical line that already overflowed one buffer's width.
type lineBuffer struct {
	text           []byte
	annotations    []annotation
	lineNumber     int
	continuation   bool
	maxAnnotations int
}

func newLineBuffer(width, maxAnnotations int) *lineBuffer {
	return &lineBuffer{text: make([]byte, 0, width), maxAnnotations: maxAnnotations}
}

func (lb *lineBuffer) reset(lineNumber int) {
	lb.text = lb.text[:0]
	lb.annotations = lb.annotations[:0]
	lb.lineNumber = lineNumber
	lb.continuation = false
}

func (lb *lineBuffer) addAnnotation(column int, message string) {
	if len(lb.annotations) >= lb.maxAnnotations {
		return
	}
	lb.annotations = append(lb.annotations, annotation{Column: column, Message: message})
}

// Line is one row of listing output: either a whole physical source
// line, or — when a physical line's text exceeds the configured
// buffer width — one width-sized segment of it. Continuation reports
// which case this is, so the listing formatter knows whether to print
// Number.
type Line struct {
	Number       int
	Text         []byte
	Annotations  []Annotation
	Continuation bool
}

// Annotation is a single (column, message) diagnostic recorded against
// a source line.
type Annotation struct {
	Column  int
	Message string
}

// Source is the character source: it owns the current and previous
// line buffers, the tab width, and the one-character pushback state.
type Source struct {
	r        *bufio.Reader
	tabWidth int
	width    int

	cur  *lineBuffer
	prev *lineBuffer

	// col is the 0-based column the next character ReadChar hands out
	// will occupy.
	col int

	pushedBack bool
	lastChar   int
	lastWasEOL bool // true if the pushed-back char was the previous line's newline

	atEOF bool
	line  int

	// lines accumulates every completed line (text + annotations), in
	// order, for the listing formatter to consume after the compile.
	lines []Line
}

// New constructs a Source reading from r with the given tab width
// (clamped to [MinTabWidth, MaxTabWidth]), line-buffer width, and
// per-line annotation cap (non-positive width or maxAnnotations
// selects DefaultWidth/DefaultMaxAnnotations).
func New(r io.Reader, tabWidth, width, maxAnnotations int) *Source {
	if tabWidth < MinTabWidth {
		tabWidth = MinTabWidth
	}
	if tabWidth > MaxTabWidth {
		tabWidth = MaxTabWidth
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if maxAnnotations <= 0 {
		maxAnnotations = DefaultMaxAnnotations
	}
	s := &Source{
		r:        bufio.NewReader(r),
		tabWidth: tabWidth,
		width:    width,
		cur:      newLineBuffer(width, maxAnnotations),
		prev:     newLineBuffer(width, maxAnnotations),
		line:     1,
	}
	s.cur.reset(1)
	return s
}

// CurrentColumn returns the column (0-based) of the character most
// recently handed out by ReadChar.
func (s *Source) CurrentColumn() int {
	if s.col == 0 {
		return 0
	}
	return s.col - 1
}

// CurrentLine returns the text accumulated so far on the current
// physical line.
func (s *Source) CurrentLine() string { return string(s.cur.text) }

// LineNumber returns the 1-based number of the line currently being
// read.
func (s *Source) LineNumber() int { return s.line }

// ReportError records an annotation at the given column against the
// line buffer the column belongs to (the current line, unless the
// pushback has crossed into the previous line).
func (s *Source) ReportError(message string, column int) {
	if s.pushedBack && s.lastWasEOL && len(s.lines) > 0 {
		// The previous line is already in the listing history.
		last := &s.lines[len(s.lines)-1]
		if len(last.Annotations) < s.cur.maxAnnotations {
			last.Annotations = append(last.Annotations, Annotation{Column: column, Message: message})
		}
		return
	}
	s.cur.addAnnotation(column, message)
}

// PendingAnnotations returns the (column, message) pairs recorded so
// far against the current line buffer. The listing formatter does not
// read them here; it renders the annotations carried by Finish's lines.
func (s *Source) PendingAnnotations() []struct {
	Column  int
	Message string
} {
	out := make([]struct {
		Column  int
		Message string
	}, len(s.cur.annotations))
	for i, a := range s.cur.annotations {
		out[i] = struct {
			Column  int
			Message string
		}{a.Column, a.Message}
	}
	return out
}

// ReadChar returns the next character, or EOF at end of input. A tab
// is expanded in the line buffer to the next multiple of tabWidth; the
// reader only ever observes a single space at the ReadChar interface
// for a tab, regardless of how many buffer columns it expands to.
func (s *Source) ReadChar() int {
	if s.pushedBack {
		s.pushedBack = false
		return s.lastChar
	}

	if s.atEOF {
		s.lastChar = EOF
		return EOF
	}

	ch, err := s.r.ReadByte()
	if err != nil {
		s.atEOF = true
		s.lastChar = EOF
		return EOF
	}

	if ch == '\t' {
		// The whole tab is consumed by this single ReadChar call: the
		// buffer absorbs every expanded column, but the caller only
		// ever observes one space regardless of tab width.
		next := ((s.col / s.tabWidth) + 1) * s.tabWidth
		spaces := next - s.col
		if spaces < 1 {
			spaces = s.tabWidth
		}
		s.appendToLine(' ', spaces)
		s.col = next
		s.lastChar = ' '
		return ' '
	}

	if ch == '\n' {
		s.appendToLine('\n', 1)
		s.col++
		s.lastChar = int('\n')
		s.advanceLine()
		return int('\n')
	}

	s.appendToLine(ch, 1)
	s.col++
	s.lastChar = int(ch)
	return int(ch)
}

func (s *Source) appendToLine(ch byte, n int) {
	for i := 0; i < n; i++ {
		if len(s.cur.text) >= s.width {
			s.splitLine()
		}
		s.cur.text = append(s.cur.text, ch)
	}
}

// splitLine flushes the current buffer segment as a completed Line
// once it reaches the configured width, without waiting for a
// newline: a fresh segment continues accumulating the same physical
// line, marked as a continuation so the listing omits its line
// number.
func (s *Source) splitLine() {
	s.recordLine(s.cur)
	lineNumber := s.cur.lineNumber
	s.cur.text = s.cur.text[:0]
	s.cur.annotations = s.cur.annotations[:0]
	s.cur.lineNumber = lineNumber
	s.cur.continuation = true
}

// advanceLine recycles the line buffers on a newline: the current
// buffer becomes previous, and a fresh buffer is prepared for the next
// line.
func (s *Source) advanceLine() {
	s.recordLine(s.cur)
	s.prev, s.cur = s.cur, s.prev
	s.line++
	s.cur.reset(s.line)
	s.col = 0
}

// recordLine copies lb's text and annotations into the listing
// history before the buffer is recycled.
func (s *Source) recordLine(lb *lineBuffer) {
	text := make([]byte, len(lb.text))
	copy(text, lb.text)
	anns := make([]Annotation, len(lb.annotations))
	for i, a := range lb.annotations {
		anns[i] = Annotation{Column: a.Column, Message: a.Message}
	}
	s.lines = append(s.lines, Line{Number: lb.lineNumber, Text: text, Annotations: anns, Continuation: lb.continuation})
}

// Finish flushes the current (final, possibly newline-less) line into
// the listing history and returns the complete set of lines. Call
// this once, after the compile has consumed all input.
func (s *Source) Finish() []Line {
	if len(s.cur.text) > 0 || len(s.cur.annotations) > 0 {
		s.recordLine(s.cur)
		s.cur.reset(s.line)
	}
	return s.lines
}

// UnreadChar pushes back exactly one character. Calling it twice
// without an intervening ReadChar is a fatal internal error — it
// indicates an implementer bug, not a user-input error. Pushback
// correctly restores position across a newline: after reading the
// first character of line L+1, one UnreadChar restores the read
// position to the trailing newline of line L.
func (s *Source) UnreadChar() {
	if s.pushedBack {
		panic("source: double UnreadChar without an intervening ReadChar")
	}
	s.pushedBack = true
	s.lastWasEOL = s.lastChar == '\n'
}

// Fatalf reports a fatal internal error and terminates the process,
// a fatal internal error, distinct from a recoverable syntax/semantic one.
func Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf("fatal internal error: "+format, args...))
}
