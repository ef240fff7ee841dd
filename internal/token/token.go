// Package token defines the CPL token-code enumeration and the Token
// record produced by the lexer and consumed by the parser.
package token

import "fmt"

// Code is a tag drawn from a closed enumeration of token codes. The
// keyword codes (Begin..Write) must stay contiguous and alphabetically
// ordered by spelling: the lexer resolves identifiers against them with
// a binary search.
type Code int

const (
	Error Code = iota
	IllegalChar
	EndOfInput
	Semicolon
	Comma
	EndOfProgram
	LeftParen
	RightParen
	Assignment
	Add
	Subtract
	Multiply
	Divide
	Equality
	LessEqual
	GreaterEqual
	Less
	Greater

	// Keyword range. Must remain contiguous and alphabetically sorted
	// by spelling — see Keywords below and lexer.lookupKeyword.
	Begin
	Do
	Else
	End
	If
	Procedure
	Program
	Read
	Ref
	Then
	Var
	While
	Write

	Identifier
	IntConst
)

var names = map[Code]string{
	Error:        "<lexical error>",
	IllegalChar:  "illegal character",
	EndOfInput:   "end of input",
	Semicolon:    ";",
	Comma:        ",",
	EndOfProgram: ".",
	LeftParen:    "(",
	RightParen:   ")",
	Assignment:   ":=",
	Add:          "+",
	Subtract:     "-",
	Multiply:     "*",
	Divide:       "/",
	Equality:     "=",
	LessEqual:    "<=",
	GreaterEqual: ">=",
	Less:         "<",
	Greater:      ">",
	Begin:        "BEGIN",
	Do:           "DO",
	Else:         "ELSE",
	End:          "END",
	If:           "IF",
	Procedure:    "PROCEDURE",
	Program:      "PROGRAM",
	Read:         "READ",
	Ref:          "REF",
	Then:         "THEN",
	Var:          "VAR",
	While:        "WHILE",
	Write:        "WRITE",
	Identifier:   "<identifier>",
	IntConst:     "<integer constant>",
}

// String renders a token code the way error messages name it, e.g.
// "Expected <name>, got <name>".
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// FirstKeyword and LastKeyword bound the contiguous keyword range the
// lexer's binary search operates over.
const (
	FirstKeyword = Begin
	LastKeyword  = Write
)

// Keywords is FirstKeyword..LastKeyword sorted alphabetically by
// spelling, matching the order the keyword codes are enumerated in.
// Preserving this invariant is what lets the lexer resolve identifiers
// by binary search instead of a hash lookup.
var Keywords = []struct {
	Spelling string
	Code     Code
}{
	{"BEGIN", Begin},
	{"DO", Do},
	{"ELSE", Else},
	{"END", End},
	{"IF", If},
	{"PROCEDURE", Procedure},
	{"PROGRAM", Program},
	{"READ", Read},
	{"REF", Ref},
	{"THEN", Then},
	{"VAR", Var},
	{"WHILE", While},
	{"WRITE", Write},
}

// Handle is a stable reference into the string interner's arena,
// present on a Token only when Code == Identifier.
type Handle struct {
	Offset int
	Length int
}

// Token is the record GetToken (the lexer) returns: a code, a value
// meaningful only for IntConst, a 0-based column position, and an
// optional spelling handle for identifiers.
type Token struct {
	Code     Code
	Value    int
	Position int
	Spelling Handle
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%d", t.Code, t.Position)
}
