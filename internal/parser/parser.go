// Package parser implements the spec's recursive-descent statement /
// precedence-climbing expression parser. Grounded on the teacher's
// internal/parser/parser.go (parseBinary/parseUnary/parseCall/finishCall,
// consume/check/match/advance/peek helpers, panic-based error raising
// caught by the top-level Parse loop), generalized to read operator
// precedence from the lexer's trie instead of a fixed Go map, and to the
// full Lython grammar (spec §4.3). Constructs the distilled spec text
// doesn't spell out (match/case, slicing, f-strings) are grounded on
// other repos in the retrieval pack rather than the Sentra original —
// see DESIGN.md's internal/parser entry.
package parser

import (
	"strings"

	"github.com/lython/lython/internal/arena"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/lexer"
)

// Parser builds arena-owned AST nodes from a Lexer's token stream.
type Parser struct {
	lex    *lexer.Lexer
	arena  *arena.Arena
	Errors lyerrors.List
	file   string
	sourceLines []string
}

// New builds a Parser reading from lex, constructing nodes in a.
func New(lex *lexer.Lexer, a *arena.Arena, file string) *Parser {
	return &Parser{lex: lex, arena: a, file: file}
}

// WithSource attaches the raw source text so parse errors can quote the
// offending line, mirroring the teacher's NewParserWithSource.
func (p *Parser) WithSource(source string) *Parser {
	p.sourceLines = strings.Split(source, "\n")
	return p
}

// parseError is the panic payload consume() raises; Parse()'s per-top-level
// recover turns it back into a recorded *errors.LythonError.
type parseError struct{ err *lyerrors.LythonError }

// Parse consumes the whole token stream, returning a ModuleNode. A failure
// while parsing one top-level statement is recorded and parsing resumes at
// the next statement boundary — per spec §4.3 "a failure inside one
// top-level definition must not prevent the next from being parsed."
func (p *Parser) Parse() *arena.ModuleNode {
	var body []arena.Stmt
	for !p.atEOF() {
		p.skipBlankLines()
		if p.atEOF() {
			break
		}
		stmt := p.parseTopLevelGuarded()
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	return arena.Own(p.arena, &arena.ModuleNode{Body: body})
}

func (p *Parser) parseTopLevelGuarded() (result arena.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			p.Errors.Add(pe.err)
			p.resync()
			result = nil
		}
	}()
	return p.statement()
}

// resync skips tokens until the next NEWLINE/DEDENT/EOF so the parser can
// attempt the next top-level definition (spec §4.3 error recovery).
func (p *Parser) resync() {
	for {
		t := p.lex.Peek()
		if t.Kind == lexer.TokenEOF || t.Kind == lexer.TokenNewline || t.Kind == lexer.TokenDedent {
			if t.Kind != lexer.TokenEOF {
				p.lex.Next()
			}
			return
		}
		p.lex.Next()
	}
}

func (p *Parser) skipBlankLines() {
	for p.check(lexer.TokenNewline) {
		p.lex.Next()
	}
}

func (p *Parser) atEOF() bool { return p.lex.Peek().Kind == lexer.TokenEOF }

// ---- token helpers, grounded on the teacher's match/check/advance/peek ----

func (p *Parser) check(k lexer.TokenKind) bool { return p.lex.Peek().Kind == k }

func (p *Parser) match(k lexer.TokenKind) bool {
	if p.check(k) {
		p.lex.Next()
		return true
	}
	return false
}

func (p *Parser) advance() lexer.Token { return p.lex.Next() }

func (p *Parser) peek() lexer.Token { return p.lex.Peek() }

func (p *Parser) consume(k lexer.TokenKind, msg string) lexer.Token {
	if p.check(k) {
		return p.advance()
	}
	tok := p.peek()
	err := lyerrors.NewSyntaxError(msg+" (got "+string(tok.Kind)+" "+tok.Lexeme+")", p.file, tok.Line, tok.Col)
	if p.sourceLines != nil && tok.Line > 0 && tok.Line <= len(p.sourceLines) {
		err = err.WithSource(p.sourceLines[tok.Line-1])
	}
	panic(parseError{err})
}

func (p *Parser) pos() arena.Pos {
	t := p.peek()
	return arena.Pos{Line: t.Line, Col: t.Col, File: p.file}
}

func (p *Parser) own(n arena.Expr) arena.Expr { return arena.Own(p.arena, n) }
