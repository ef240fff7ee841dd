// Package parser implements the recursive-descent parser and semantic
// driver: the control algorithm that pulls tokens from the lexer,
// drives the symbol table and code buffer, recovers from syntax
// errors via Accept/Synchronise, and emits target code as a side
// effect of parsing, one declaration or statement at a time, rather
// than building an intermediate tree.
package parser

import (
	"fmt"

	"github.com/cplteam/cplc/internal/codebuf"
	"github.com/cplteam/cplc/internal/compiler"
	"github.com/cplteam/cplc/internal/lexer"
	"github.com/cplteam/cplc/internal/symtab"
	"github.com/cplteam/cplc/internal/token"
	"github.com/cplteam/cplc/internal/tokenset"
)

// Parser drives parsing of one CPL program against a compiler.Context.
type Parser struct {
	ctx *compiler.Context
	lex *lexer.Lexer

	current    token.Token
	recovering bool

	scopeDepth    int
	globalCounter int
	frameCounters []int // one per active procedure scope, innermost last
}

// New constructs a Parser over ctx.
func New(ctx *compiler.Context) *Parser {
	return &Parser{
		ctx:        ctx,
		lex:        lexer.New(ctx.Source, ctx.Interns),
		scopeDepth: 1,
	}
}

// Compile parses and compiles the whole program. It returns a non-nil
// error only for a fatal internal condition (panics from codebuf are
// recovered and rewrapped here); recoverable syntax/semantic errors
// are reported via the source's annotation mechanism and do not stop
// compilation.
func (p *Parser) Compile() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("fatal internal error: %v", r)
			}
		}
	}()

	p.advance()
	p.parseProgram()
	return nil
}

// ---- token stream plumbing -------------------------------------------------

func (p *Parser) advance() {
	p.current = p.lex.GetToken()
}

// Accept is the token-level recovery primitive: if recovering, it first
// skips tokens until one matching expected appears (or end-of-input);
// then, if the current token still doesn't match expected, it reports
// expected-vs-got and enters recovering; otherwise it simply advances.
// This prevents cascading errors at the token level.
func (p *Parser) Accept(expected token.Code) {
	if p.recovering {
		for p.current.Code != expected && p.current.Code != token.EndOfInput {
			p.advance()
		}
		p.recovering = false
	}
	if p.current.Code != expected {
		lexer.SyntaxError(p.ctx.Source, expected, p.current)
		p.ctx.Code.KillOutput()
		p.recovering = true
		return
	}
	p.advance()
}

// Synchronise is the landmark-level recovery primitive: if the current
// token is in first, parsing is at a legal position. Otherwise it reports a
// "one of first expected" diagnostic and consumes tokens until the
// current token is in first ∪ followBeacons, guaranteeing termination
// at a higher-level landmark.
func (p *Parser) Synchronise(first, followBeacons tokenset.Set) {
	if first.Contains(p.current.Code) {
		return
	}
	lexer.SyntaxError2(p.ctx.Source, codeNames(first.Codes()), p.current)
	p.ctx.Code.KillOutput()
	stop := tokenset.Union(first, followBeacons)
	for !stop.Contains(p.current.Code) && p.current.Code != token.EndOfInput {
		p.advance()
	}
}

// codeNames renders a FIRST set's member codes in the form
// SyntaxError2 expects: one name per element, in ascending code order.
func codeNames(codes []token.Code) []string {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = c.String()
	}
	return names
}

func (p *Parser) spellingBytes() []byte {
	return p.ctx.Interns.Bytes(p.current.Spelling)
}

func (p *Parser) reportSemanticError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.ctx.Source.ReportError(msg, p.current.Position)
	p.ctx.Code.KillOutput()
}

// ---- grammar ----------------------------------------------------------------

var declarationsFirst = tokenset.New(token.Var)
var procDeclFirst = tokenset.New(token.Procedure)
var blockFirst = tokenset.New(token.Begin)
var statementFirst = tokenset.New(token.Identifier, token.While, token.If, token.Read, token.Write)

// Program ::= "PROGRAM" id ";" [Declarations] {ProcDeclaration} Block "."
func (p *Parser) parseProgram() {
	p.Accept(token.Program)

	if p.current.Code == token.Identifier {
		spelling := p.spellingBytes()
		handle := p.current.Spelling
		if _, err := p.ctx.Symbols.Declare(spelling, handle, p.scopeDepth, symtab.KindProgram); err != nil {
			p.reportSemanticError("%s", err)
		}
	}
	p.Accept(token.Identifier)
	p.Accept(token.Semicolon)

	p.Synchronise(tokenset.Union(declarationsFirst, procDeclFirst, blockFirst), tokenset.New())
	if p.current.Code == token.Var {
		p.parseDeclarations()
	}
	p.Synchronise(tokenset.Union(procDeclFirst, blockFirst), tokenset.New())

	for p.current.Code == token.Procedure {
		p.parseProcDeclaration()
		p.Synchronise(tokenset.Union(procDeclFirst, blockFirst), tokenset.New())
	}

	p.parseBlock()
	p.Accept(token.EndOfProgram)
}

// Declarations ::= "VAR" id {"," id} ";"
func (p *Parser) parseDeclarations() {
	p.Accept(token.Var)
	p.declareOne()
	for p.current.Code == token.Comma {
		p.Accept(token.Comma)
		p.declareOne()
	}
	p.Accept(token.Semicolon)
}

// declareOne declares the current identifier at the current scope as
// a global variable (scope depth 1) or a local variable (depth > 1).
func (p *Parser) declareOne() {
	if p.current.Code == token.Identifier {
		spelling := p.spellingBytes()
		handle := p.current.Spelling
		kind := symtab.KindVariable
		if p.scopeDepth > 1 {
			kind = symtab.KindLocalVar
		}
		sym, err := p.ctx.Symbols.Declare(spelling, handle, p.scopeDepth, kind)
		if err != nil {
			p.reportSemanticError("%s", err)
		} else {
			sym.Address = p.nextDataAddress(kind)
		}
	}
	p.Accept(token.Identifier)
}

func (p *Parser) nextDataAddress(kind symtab.Kind) int {
	if kind == symtab.KindVariable {
		addr := p.globalCounter
		p.globalCounter++
		return addr
	}
	top := len(p.frameCounters) - 1
	addr := p.frameCounters[top]
	p.frameCounters[top]++
	return addr
}

// ProcDeclaration ::= "PROCEDURE" id [ParameterList] ";"
//                     [Declarations] {ProcDeclaration} Block ";"
func (p *Parser) parseProcDeclaration() {
	p.Accept(token.Procedure)

	var sym *symtab.Symbol
	if p.current.Code == token.Identifier {
		spelling := p.spellingBytes()
		handle := p.current.Spelling
		var err error
		sym, err = p.ctx.Symbols.Declare(spelling, handle, p.scopeDepth, symtab.KindProcedure)
		if err != nil {
			p.reportSemanticError("%s", err)
		}
	}
	p.Accept(token.Identifier)

	// Push scope before parsing parameters: formals live at the new
	// (nested) depth.
	p.scopeDepth++
	p.frameCounters = append(p.frameCounters, 0)

	paramCount := 0
	if p.current.Code == token.LeftParen {
		paramCount = p.parseParameterList()
	}
	if sym != nil {
		sym.ParamCount = paramCount
	}
	p.Accept(token.Semicolon)

	p.Synchronise(tokenset.Union(declarationsFirst, procDeclFirst, blockFirst), tokenset.New())
	if p.current.Code == token.Var {
		p.parseDeclarations()
	}
	p.Synchronise(tokenset.Union(procDeclFirst, blockFirst), tokenset.New())

	for p.current.Code == token.Procedure {
		p.parseProcDeclaration()
		p.Synchronise(tokenset.Union(procDeclFirst, blockFirst), tokenset.New())
	}

	if sym != nil {
		sym.Address = p.ctx.Code.CurrentAddress()
	}
	p.parseBlock()
	p.ctx.Code.Emit0(codebuf.Ret)

	// Pop scope: reclaim every symbol declared at >= the depth we're
	// leaving, then decrement.
	p.ctx.Symbols.RemoveAtOrAbove(p.scopeDepth)
	p.frameCounters = p.frameCounters[:len(p.frameCounters)-1]
	p.scopeDepth--

	p.Accept(token.Semicolon)
}

// ParameterList ::= "(" FormalParameter {"," FormalParameter} ")"
func (p *Parser) parseParameterList() int {
	p.Accept(token.LeftParen)
	p.parseFormalParameter()
	total := 1
	for p.current.Code == token.Comma {
		p.Accept(token.Comma)
		p.parseFormalParameter()
		total++
	}
	p.Accept(token.RightParen)
	return total
}

// FormalParameter ::= ["REF"] id
func (p *Parser) parseFormalParameter() int {
	kind := symtab.KindValuePar
	if p.current.Code == token.Ref {
		p.Accept(token.Ref)
		kind = symtab.KindRefPar
	}
	if p.current.Code == token.Identifier {
		spelling := p.spellingBytes()
		handle := p.current.Spelling
		sym, err := p.ctx.Symbols.Declare(spelling, handle, p.scopeDepth, kind)
		if err != nil {
			p.reportSemanticError("%s", err)
		} else {
			sym.Address = p.nextDataAddress(kind)
		}
	}
	p.Accept(token.Identifier)
	return 1
}

// Block ::= "BEGIN" {Statement ";"} "END"
func (p *Parser) parseBlock() {
	p.Accept(token.Begin)
	p.Synchronise(tokenset.Union(statementFirst, tokenset.New(token.End)), tokenset.New())
	for statementFirst.Contains(p.current.Code) {
		p.parseStatement()
		p.Accept(token.Semicolon)
		p.Synchronise(tokenset.Union(statementFirst, tokenset.New(token.End)), tokenset.New())
	}
	p.Accept(token.End)
}

// Statement ::= SimpleStmt | WhileStmt | IfStmt | ReadStmt | WriteStmt
func (p *Parser) parseStatement() {
	switch p.current.Code {
	case token.Identifier:
		p.parseSimpleStatement()
	case token.While:
		p.parseWhileStatement()
	case token.If:
		p.parseIfStatement()
	case token.Read:
		p.parseReadStatement()
	case token.Write:
		p.parseWriteStatement()
	}
}

// SimpleStmt ::= id RestOfStatement
// RestOfStatement ::= ProcCallList | Assignment | ε
func (p *Parser) parseSimpleStatement() {
	spelling := append([]byte(nil), p.spellingBytes()...)
	sym, err := p.ctx.Symbols.Lookup(spelling)
	if err != nil {
		p.reportSemanticError("%s", err)
	}
	p.Accept(token.Identifier)

	if p.current.Code == token.LeftParen {
		p.parseProcCallList()
		if sym != nil && sym.Kind != symtab.KindProcedure {
			p.reportSemanticError("%s is not a procedure", string(spelling))
		}
		if sym != nil {
			p.ctx.Code.Emit(codebuf.Call, sym.Address)
		}
		return
	}

	// Assignment is also the fallback RestOfStatement production: a
	// missing ":=" is left for Accept to report and recover from.
	p.Accept(token.Assignment)
	p.parseExpression()
	if sym == nil {
		// already reported as undeclared
	} else if !isVariable(sym.Kind) {
		p.reportSemanticError("%s is not a variable", string(spelling))
	} else {
		p.emitStore(sym)
	}
}

func isVariable(k symtab.Kind) bool {
	switch k {
	case symtab.KindVariable, symtab.KindLocalVar, symtab.KindValuePar, symtab.KindRefPar:
		return true
	}
	return false
}

// ProcCallList ::= "(" ActualParameter {"," ActualParameter} ")"
func (p *Parser) parseProcCallList() {
	p.Accept(token.LeftParen)
	p.parseActualParameter()
	for p.current.Code == token.Comma {
		p.Accept(token.Comma)
		p.parseActualParameter()
	}
	p.Accept(token.RightParen)
}

// ActualParameter ::= id | Expression
// Each actual parameter is evaluated left-to-right, its result pushed
// onto the stack machine's operand stack (the same code path
// ParseExpression/ParseSubTerm already use for identifiers), ahead of
// the eventual Call.
func (p *Parser) parseActualParameter() {
	p.parseExpression()
}

// WhileStmt ::= "WHILE" BoolExpr "DO" Block
func (p *Parser) parseWhileStatement() {
	p.Accept(token.While)
	l1 := p.ctx.Code.CurrentAddress()
	branchPatch := p.parseBooleanExpression()
	p.Accept(token.Do)
	p.parseBlock()
	p.ctx.Code.Emit(codebuf.Br, l1)
	l2 := p.ctx.Code.CurrentAddress()
	p.ctx.Code.Backpatch(branchPatch, l2)
}

// IfStmt ::= "IF" BoolExpr "THEN" Block ["ELSE" Block]
func (p *Parser) parseIfStatement() {
	p.Accept(token.If)
	p1 := p.parseBooleanExpression()
	p.Accept(token.Then)
	p.parseBlock()

	if p.current.Code == token.Else {
		p.Accept(token.Else)
		p2 := p.ctx.Code.CurrentAddress()
		p.ctx.Code.Emit(codebuf.Br, 0)
		p.ctx.Code.Backpatch(p1, p.ctx.Code.CurrentAddress())
		p.parseBlock()
		p.ctx.Code.Backpatch(p2, p.ctx.Code.CurrentAddress())
	} else {
		p.ctx.Code.Backpatch(p1, p.ctx.Code.CurrentAddress())
	}
}

// ReadStmt ::= "READ" "(" id {"," id} ")"
// One Read opcode is emitted per argument, in argument order.
func (p *Parser) parseReadStatement() {
	p.Accept(token.Read)
	p.Accept(token.LeftParen)
	p.readOne()
	for p.current.Code == token.Comma {
		p.Accept(token.Comma)
		p.readOne()
	}
	p.Accept(token.RightParen)
}

func (p *Parser) readOne() {
	spelling := append([]byte(nil), p.spellingBytes()...)
	sym, err := p.ctx.Symbols.Lookup(spelling)
	if err != nil {
		p.reportSemanticError("%s", err)
	}
	p.Accept(token.Identifier)
	p.ctx.Code.Emit0(codebuf.Read)
	if sym != nil && isVariable(sym.Kind) {
		p.emitStore(sym)
	}
}

// WriteStmt ::= "WRITE" "(" Expression {"," Expression} ")"
// One Write opcode is emitted per argument, in argument order.
func (p *Parser) parseWriteStatement() {
	p.Accept(token.Write)
	p.Accept(token.LeftParen)
	p.parseExpression()
	p.ctx.Code.Emit0(codebuf.Write)
	for p.current.Code == token.Comma {
		p.Accept(token.Comma)
		p.parseExpression()
		p.ctx.Code.Emit0(codebuf.Write)
	}
	p.Accept(token.RightParen)
}

// Expression ::= CompoundTerm {AddOp CompoundTerm}
func (p *Parser) parseExpression() {
	p.parseCompoundTerm()
	for p.current.Code == token.Add || p.current.Code == token.Subtract {
		op := p.current.Code
		p.advance()
		p.parseCompoundTerm()
		if op == token.Add {
			p.ctx.Code.Emit0(codebuf.Add)
		} else {
			p.ctx.Code.Emit0(codebuf.Sub)
		}
	}
}

// CompoundTerm ::= Term {MultOp Term}
func (p *Parser) parseCompoundTerm() {
	p.parseTerm()
	for p.current.Code == token.Multiply || p.current.Code == token.Divide {
		op := p.current.Code
		p.advance()
		p.parseTerm()
		if op == token.Multiply {
			p.ctx.Code.Emit0(codebuf.Mult)
		} else {
			p.ctx.Code.Emit0(codebuf.Div)
		}
	}
}

// Term ::= ["-"] SubTerm
func (p *Parser) parseTerm() {
	negate := false
	if p.current.Code == token.Subtract {
		p.advance()
		negate = true
	}
	p.parseSubTerm()
	if negate {
		p.ctx.Code.Emit0(codebuf.Neg)
	}
}

// SubTerm ::= id | intconst | "(" Expression ")"
func (p *Parser) parseSubTerm() {
	switch p.current.Code {
	case token.IntConst:
		p.ctx.Code.Emit(codebuf.LoadImmediate, p.current.Value)
		p.Accept(token.IntConst)
	case token.Identifier:
		p.parseSubTermIdentifier()
	case token.LeftParen:
		p.Accept(token.LeftParen)
		p.parseExpression()
		p.Accept(token.RightParen)
	default:
		lexer.SyntaxError(p.ctx.Source, token.Identifier, p.current)
		p.ctx.Code.KillOutput()
		p.recovering = true
	}
}

func (p *Parser) parseSubTermIdentifier() {
	spelling := append([]byte(nil), p.spellingBytes()...)
	sym, err := p.ctx.Symbols.Lookup(spelling)
	if err != nil {
		p.reportSemanticError("%s", err)
	}
	p.Accept(token.Identifier)
	if sym != nil {
		p.emitLoad(sym)
	}
}

// BoolExpr ::= Expression RelOp Expression
// Compiles left, remembers the relational operator, compiles right,
// emits Sub, then emits the *negated* conditional branch (so "<="
// emits Bg, ">=" emits Bl, "<" emits Bgz, "=" emits Bnz, ">" emits Blz)
// with a 0 placeholder operand, returning the branch's address so the
// caller can backpatch it once the target is known.
func (p *Parser) parseBooleanExpression() int {
	p.parseExpression()
	op := p.current.Code
	p.advance()
	p.parseExpression()
	p.ctx.Code.Emit0(codebuf.Sub)

	var branchOp codebuf.Opcode
	switch op {
	case token.LessEqual:
		branchOp = codebuf.Bg
	case token.GreaterEqual:
		branchOp = codebuf.Bl
	case token.Less:
		branchOp = codebuf.Bgz
	case token.Equality:
		branchOp = codebuf.Bnz
	case token.Greater:
		branchOp = codebuf.Blz
	default:
		branchOp = codebuf.Bnz
	}
	addr := p.ctx.Code.CurrentAddress()
	p.ctx.Code.Emit(branchOp, 0)
	return addr
}

// ---- addressing ------------------------------------------------------------

// emitLoad emits the load sequence for a resolved variable reference:
// absolute for a global, FP+addr for a same-scope local, or a
// static-chain walk (Load FP; Load [SP] repeated; Load [SP]+addr) for
// an enclosing scope's local.
func (p *Parser) emitLoad(sym *symtab.Symbol) {
	if sym.Kind == symtab.KindVariable {
		p.ctx.Code.Emit(codebuf.LoadAbsolute, sym.Address)
		return
	}
	j := p.scopeDepth - sym.Scope
	if j == 0 {
		p.ctx.Code.Emit(codebuf.LoadFP, sym.Address)
		return
	}
	p.ctx.Code.Emit(codebuf.LoadFP, 0)
	for i := 0; i < j-1; i++ {
		p.ctx.Code.Emit(codebuf.LoadSP, 0)
	}
	p.ctx.Code.Emit(codebuf.LoadSP, sym.Address)
}

// emitStore is the store-side analogue of emitLoad, used by
// assignment and READ: same static-chain walk, ending in the Store
// variant instead of the final Load.
func (p *Parser) emitStore(sym *symtab.Symbol) {
	if sym.Kind == symtab.KindVariable {
		p.ctx.Code.Emit(codebuf.StoreAbsolute, sym.Address)
		return
	}
	j := p.scopeDepth - sym.Scope
	if j == 0 {
		p.ctx.Code.Emit(codebuf.StoreFP, sym.Address)
		return
	}
	p.ctx.Code.Emit(codebuf.LoadFP, 0)
	for i := 0; i < j-1; i++ {
		p.ctx.Code.Emit(codebuf.LoadSP, 0)
	}
	p.ctx.Code.Emit(codebuf.StoreSP, sym.Address)
}
