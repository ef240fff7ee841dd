// Package lexer converts characters from a source.Source into tagged
// tokens: whitespace/comment skipping, punctuators, :=, <=/>=, digit
// runs, and identifier/keyword resolution by binary search.
package lexer

import (
	"fmt"
	"sort"

	"github.com/cplteam/cplc/internal/intern"
	"github.com/cplteam/cplc/internal/source"
	"github.com/cplteam/cplc/internal/token"
)

// Lexer produces tokens from a character Source, committing
// identifier spellings to a string Table.
type Lexer struct {
	src     *source.Source
	interns *intern.Table
}

// New constructs a Lexer reading from src and interning identifiers
// into interns.
func New(src *source.Source, interns *intern.Table) *Lexer {
	return &Lexer{src: src, interns: interns}
}

func isDigit(ch int) bool  { return ch >= '0' && ch <= '9' }
func isLetter(ch int) bool { return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') }

// GetToken returns the next token, running the full tokenizing state
// machine.
func (l *Lexer) GetToken() token.Token {
	l.skipWhitespaceAndComments()

	ch := l.src.ReadChar()
	pos := l.src.CurrentColumn()

	switch {
	case ch == source.EOF:
		return token.Token{Code: token.EndOfInput, Position: pos}

	case ch == ';':
		return token.Token{Code: token.Semicolon, Position: pos}
	case ch == ',':
		return token.Token{Code: token.Comma, Position: pos}
	case ch == '.':
		return token.Token{Code: token.EndOfProgram, Position: pos}
	case ch == '(':
		return token.Token{Code: token.LeftParen, Position: pos}
	case ch == ')':
		return token.Token{Code: token.RightParen, Position: pos}
	case ch == '+':
		return token.Token{Code: token.Add, Position: pos}
	case ch == '-':
		return token.Token{Code: token.Subtract, Position: pos}
	case ch == '*':
		return token.Token{Code: token.Multiply, Position: pos}
	case ch == '/':
		return token.Token{Code: token.Divide, Position: pos}
	case ch == '=':
		return token.Token{Code: token.Equality, Position: pos}

	case ch == ':':
		next := l.src.ReadChar()
		if next == '=' {
			return token.Token{Code: token.Assignment, Position: pos}
		}
		l.src.UnreadChar()
		return token.Token{Code: token.Error, Position: pos}

	case ch == '<':
		next := l.src.ReadChar()
		if next == '=' {
			return token.Token{Code: token.LessEqual, Position: pos}
		}
		l.src.UnreadChar()
		return token.Token{Code: token.Less, Position: pos}

	case ch == '>':
		next := l.src.ReadChar()
		if next == '=' {
			return token.Token{Code: token.GreaterEqual, Position: pos}
		}
		l.src.UnreadChar()
		return token.Token{Code: token.Greater, Position: pos}

	case isDigit(ch):
		return l.scanInt(ch, pos)

	case isLetter(ch):
		return l.scanIdentifier(ch, pos)

	default:
		return token.Token{Code: token.IllegalChar, Position: pos}
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		ch := l.src.ReadChar()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			continue
		case ch == '!':
			for {
				c := l.src.ReadChar()
				if c == '\n' || c == source.EOF {
					if c == source.EOF {
						l.src.UnreadChar()
					}
					break
				}
			}
			continue
		default:
			l.src.UnreadChar()
			return
		}
	}
}

func (l *Lexer) scanInt(first int, pos int) token.Token {
	value := first - '0'
	for {
		ch := l.src.ReadChar()
		if !isDigit(ch) {
			l.src.UnreadChar()
			break
		}
		value = value*10 + (ch - '0')
	}
	return token.Token{Code: token.IntConst, Value: value, Position: pos}
}

func (l *Lexer) scanIdentifier(first int, pos int) token.Token {
	l.interns.Begin()
	l.interns.Push(byte(first))
	for {
		ch := l.src.ReadChar()
		if !isLetter(ch) && !isDigit(ch) {
			l.src.UnreadChar()
			break
		}
		l.interns.Push(byte(ch))
	}

	spelling := l.interns.Current()
	bytes := make([]byte, spelling.Length)
	copy(bytes, l.tentativeBytes(spelling.Length))

	if code, ok := lookupKeyword(bytes); ok {
		l.interns.Begin() // discard the tentative bytes
		return token.Token{Code: code, Position: pos}
	}

	handle := l.interns.Commit()
	return token.Token{Code: token.Identifier, Position: pos, Spelling: handle}
}

// tentativeBytes is a small helper exposing the interner's
// not-yet-committed bytes for keyword comparison without committing
// them first.
func (l *Lexer) tentativeBytes(n int) []byte {
	return l.interns.PeekTentative(n)
}

// lookupKeyword resolves an assembled spelling against the reserved
// word list by binary search over the pre-sorted keyword range
// (token.Keywords is alphabetically ordered, matching the original
// compiler's contiguous, alphabetically-sorted keyword token-code
// range).
func lookupKeyword(spelling []byte) (token.Code, bool) {
	s := string(spelling)
	i := sort.Search(len(token.Keywords), func(i int) bool {
		return token.Keywords[i].Spelling >= s
	})
	if i < len(token.Keywords) && token.Keywords[i].Spelling == s {
		return token.Keywords[i].Code, true
	}
	return 0, false
}

// SyntaxError reports "Expected <name>, got <name>" at the current
// source position.
func SyntaxError(src *source.Source, expected token.Code, got token.Token) {
	src.ReportError(fmt.Sprintf("Expected %s, got %s", expected, got.Code), got.Position)
}

// SyntaxError2 reports a set-expected diagnostic: the set's elements,
// truncated if the rendered list would exceed the line display
// budget (intentional: comments carry no token value).
func SyntaxError2(src *source.Source, expectedNames []string, got token.Token) {
	const displayBudget = 60
	msg := "Expected one of: "
	for i, n := range expectedNames {
		candidate := msg
		if i > 0 {
			candidate += ", "
		}
		candidate += n
		if len(candidate) > displayBudget {
			msg += "..."
			break
		}
		msg = candidate
	}
	msg += fmt.Sprintf(", got %s", got.Code)
	src.ReportError(msg, got.Position)
}
