package parser

import (
	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/lexer"
)

// statement dispatches on the current token to one of the statement
// productions in spec §4.3, grounded on the teacher's statement() switch
// generalized from brace-delimited blocks to INDENT/DEDENT blocks.
func (p *Parser) statement() arena.Stmt {
	tok := p.peek()
	switch tok.Kind {
	case lexer.TokenDef:
		p.advance()
		return p.funcDef(nil, false)
	case lexer.TokenAsync:
		p.advance()
		p.consume(lexer.TokenDef, "expect 'def' after 'async'")
		return p.funcDef(nil, true)
	case lexer.TokenStruct, lexer.TokenClass:
		return p.classDef(nil)
	case lexer.TokenAt:
		return p.decorated()
	case lexer.TokenIf:
		return p.ifStmt()
	case lexer.TokenWhile:
		return p.whileStmt()
	case lexer.TokenFor:
		return p.forStmt()
	case lexer.TokenWith:
		return p.withStmt()
	case lexer.TokenTry:
		return p.tryStmt()
	case lexer.TokenMatch:
		return p.matchStmt()
	case lexer.TokenReturn:
		return p.returnStmt()
	case lexer.TokenRaise:
		return p.raiseStmt()
	case lexer.TokenImport:
		return p.importStmt()
	case lexer.TokenFrom:
		return p.importFromStmt()
	case lexer.TokenGlobal:
		return p.globalStmt()
	case lexer.TokenNonlocal:
		return p.nonlocalStmt()
	case lexer.TokenPass:
		p.advance()
		s := p.own2(&arena.Pass{StmtBase: arena.NewStmtBase(p.posOf(tok))})
		p.endSimpleStmt()
		return s
	case lexer.TokenBreak:
		p.advance()
		s := p.own2(&arena.Break{StmtBase: arena.NewStmtBase(p.posOf(tok))})
		p.endSimpleStmt()
		return s
	case lexer.TokenContinue:
		p.advance()
		s := p.own2(&arena.Continue{StmtBase: arena.NewStmtBase(p.posOf(tok))})
		p.endSimpleStmt()
		return s
	case lexer.TokenAssert:
		return p.assertStmt()
	}
	return p.exprOrAssignStmt()
}

// own2 registers a Stmt with the arena; kept distinct from expr.go's own
// (which is typed for Expr) since Go generics don't let a single method
// value serve both without an explicit type parameter at the call site.
func (p *Parser) own2(n arena.Stmt) arena.Stmt { return arena.Own(p.arena, n) }

// endSimpleStmt consumes the NEWLINE (or ';' for an inline-sequenced
// statement, left to the caller) terminating a simple statement.
func (p *Parser) endSimpleStmt() {
	if p.check(lexer.TokenSemicolon) {
		return
	}
	if p.check(lexer.TokenNewline) {
		p.advance()
		return
	}
	if p.atEOF() || p.check(lexer.TokenDedent) {
		return
	}
	p.consume(lexer.TokenNewline, "expect newline after statement")
}

// block parses an indented statement suite: ':' NEWLINE INDENT stmt+ DEDENT,
// per spec §4.2's indentation rules, with a same-line single-statement
// fallback (`if x: return y`) the original_source grammar also accepts.
func (p *Parser) block() []arena.Stmt {
	p.consume(lexer.TokenColon, "expect ':' before block")
	if !p.check(lexer.TokenNewline) {
		return []arena.Stmt{p.statement()}
	}
	p.advance() // NEWLINE
	p.consume(lexer.TokenIndent, "expect indented block")
	var body []arena.Stmt
	for !p.check(lexer.TokenDedent) && !p.atEOF() {
		if p.check(lexer.TokenNewline) {
			p.advance()
			continue
		}
		body = append(body, p.statement())
	}
	p.consume(lexer.TokenDedent, "expect dedent closing block")
	return body
}

func (p *Parser) decorated() arena.Stmt {
	var decorators []arena.Expr
	for p.check(lexer.TokenAt) {
		p.advance()
		decorators = append(decorators, p.parsePostfix())
		p.consume(lexer.TokenNewline, "expect newline after decorator")
	}
	if p.check(lexer.TokenAsync) {
		p.advance()
		p.consume(lexer.TokenDef, "expect 'def' after 'async'")
		return p.funcDef(decorators, true)
	}
	if p.check(lexer.TokenStruct) || p.check(lexer.TokenClass) {
		return p.classDef(decorators)
	}
	p.consume(lexer.TokenDef, "expect 'def' or 'class' after decorator")
	return p.funcDef(decorators, false)
}

// funcDef parses `def name(params) -> ret: body`, capturing a leading
// string-literal statement in the body as Docstring per spec §9's
// docstring-capture decision.
func (p *Parser) funcDef(decorators []arena.Expr, isAsync bool) arena.Stmt {
	pos := p.pos()
	name := p.consume(lexer.TokenIdent, "expect function name").Lexeme
	p.consume(lexer.TokenLParen, "expect '(' after function name")
	var params []arena.Param
	if !p.check(lexer.TokenRParen) {
		for {
			pname := p.consume(lexer.TokenIdent, "expect parameter name").Lexeme
			param := arena.Param{Name: pname}
			if p.match(lexer.TokenColon) {
				param.Annotation = p.parseTypeExpr()
			}
			if p.match(lexer.TokenAssignTok) {
				param.Default = p.Expression()
			}
			params = append(params, param)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expect ')' after parameters")
	var retType arena.Expr
	if p.match(lexer.TokenArrow) {
		retType = p.parseTypeExpr()
	}
	body := p.block()
	doc, body := extractDocstring(body)
	fn := &arena.FunctionDef{
		StmtBase: arena.NewStmtBase(pos), Name: name, Params: params,
		ReturnType: retType, Body: body, Docstring: doc, IsAsync: isAsync,
		Decorators: decorators,
	}
	return p.own2(fn)
}

func (p *Parser) classDef(decorators []arena.Expr) arena.Stmt {
	pos := p.pos()
	p.advance() // 'struct' or 'class'
	name := p.consume(lexer.TokenIdent, "expect class name").Lexeme
	var bases []arena.Expr
	if p.match(lexer.TokenLParen) {
		if !p.check(lexer.TokenRParen) {
			for {
				bases = append(bases, p.Expression())
				if !p.match(lexer.TokenComma) {
					break
				}
			}
		}
		p.consume(lexer.TokenRParen, "expect ')' after base list")
	}
	body := p.block()
	doc, body := extractDocstring(body)
	cls := &arena.ClassDef{
		StmtBase: arena.NewStmtBase(pos), Name: name, Bases: bases,
		Body: body, Docstring: doc, Decorators: decorators,
	}
	return p.own2(cls)
}

// extractDocstring hoists a leading bare string-literal ExprStmt out of
// body into the Docstring field, per spec §9's decision to capture it
// structurally rather than leave it as an executed no-op statement.
func extractDocstring(body []arena.Stmt) (string, []arena.Stmt) {
	if len(body) == 0 {
		return "", body
	}
	es, ok := body[0].(*arena.ExprStmt)
	if !ok {
		return "", body
	}
	c, ok := es.Value.(*arena.Constant)
	if !ok || c.Kind != arena.ConstString {
		return "", body
	}
	return c.StrVal, body[1:]
}

func (p *Parser) ifStmt() arena.Stmt {
	pos := p.pos()
	p.advance() // 'if'
	test := p.Expression()
	body := p.block()
	var orelse []arena.Stmt
	if p.check(lexer.TokenElif) {
		orelse = []arena.Stmt{p.elifStmt()}
	} else if p.match(lexer.TokenElse) {
		orelse = p.block()
	}
	return p.own2(&arena.If{StmtBase: arena.NewStmtBase(pos), Test: test, Body: body, Orelse: orelse})
}

// elifStmt treats `elif` as a synthetic nested `if`, matching how Python's
// own grammar desugars the chain.
func (p *Parser) elifStmt() arena.Stmt {
	pos := p.pos()
	p.advance() // 'elif'
	test := p.Expression()
	body := p.block()
	var orelse []arena.Stmt
	if p.check(lexer.TokenElif) {
		orelse = []arena.Stmt{p.elifStmt()}
	} else if p.match(lexer.TokenElse) {
		orelse = p.block()
	}
	return p.own2(&arena.If{StmtBase: arena.NewStmtBase(pos), Test: test, Body: body, Orelse: orelse})
}

func (p *Parser) whileStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	test := p.Expression()
	body := p.block()
	var orelse []arena.Stmt
	if p.match(lexer.TokenElse) {
		orelse = p.block()
	}
	return p.own2(&arena.While{StmtBase: arena.NewStmtBase(pos), Test: test, Body: body, Orelse: orelse})
}

func (p *Parser) forStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	target := p.parseTargetList()
	p.consume(lexer.TokenIn, "expect 'in' in for statement")
	iter := p.Expression()
	body := p.block()
	var orelse []arena.Stmt
	if p.match(lexer.TokenElse) {
		orelse = p.block()
	}
	return p.own2(&arena.For{StmtBase: arena.NewStmtBase(pos), Target: target, Iter: iter, Body: body, Orelse: orelse})
}

func (p *Parser) withStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	var items []arena.WithItem
	for {
		ctxExpr := p.Expression()
		item := arena.WithItem{ContextExpr: ctxExpr}
		if p.match(lexer.TokenAs) {
			item.OptionalVars = p.parseBinary(0)
		}
		items = append(items, item)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	body := p.block()
	return p.own2(&arena.With{StmtBase: arena.NewStmtBase(pos), Items: items, Body: body})
}

func (p *Parser) tryStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	body := p.block()
	var handlers []arena.ExceptHandler
	for p.check(lexer.TokenExcept) {
		p.advance()
		var h arena.ExceptHandler
		if !p.check(lexer.TokenColon) {
			h.ExcType = p.Expression()
			if p.match(lexer.TokenAs) {
				h.Name = p.consume(lexer.TokenIdent, "expect exception name after 'as'").Lexeme
			}
		}
		h.Body = p.block()
		handlers = append(handlers, h)
	}
	var orelse, finally []arena.Stmt
	if p.match(lexer.TokenElse) {
		orelse = p.block()
	}
	if p.match(lexer.TokenFinally) {
		finally = p.block()
	}
	return p.own2(&arena.Try{StmtBase: arena.NewStmtBase(pos), Body: body, Handlers: handlers, Orelse: orelse, Finally: finally})
}

// matchStmt parses `match subject: case pattern [if guard]: body`, patterns
// supplemented from original_source's pattern grammar (spec.md's own text
// only names Match/MatchCase as AST nodes without spelling out every
// pattern form).
func (p *Parser) matchStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	subject := p.Expression()
	p.consume(lexer.TokenColon, "expect ':' after match subject")
	p.consume(lexer.TokenNewline, "expect newline before match body")
	p.consume(lexer.TokenIndent, "expect indented match body")
	var cases []arena.MatchCase
	for p.check(lexer.TokenCase) {
		p.advance()
		pattern := p.parsePattern()
		var guard arena.Expr
		if p.match(lexer.TokenIf) {
			guard = p.Expression()
		}
		body := p.block()
		cases = append(cases, arena.MatchCase{Pattern: pattern, Guard: guard, Body: body})
		for p.check(lexer.TokenNewline) {
			p.advance()
		}
	}
	p.consume(lexer.TokenDedent, "expect dedent closing match body")
	return p.own2(&arena.Match{StmtBase: arena.NewStmtBase(pos), Subject: subject, Cases: cases})
}

// parsePattern parses one match-case pattern. Only the forms spec §3 names
// as AST node kinds are implemented (MatchValue/MatchSingleton/
// MatchSequence/MatchMapping/MatchClass/MatchStar/MatchAs/MatchOr);
// construction of these nodes is not yet lowered by ssa/vmgen (see
// DESIGN.md's Open Question decisions on match execution).
func (p *Parser) parsePattern() arena.Node {
	pat := p.parseOrPattern()
	if p.match(lexer.TokenAs) {
		name := p.consume(lexer.TokenIdent, "expect name after 'as' in pattern").Lexeme
		return &arena.MatchAs{Base: arena.NewBase(p.pos()), Pattern: pat, Name: name}
	}
	return pat
}

func (p *Parser) parseOrPattern() arena.Node {
	first := p.parseAtomPattern()
	if !p.check(lexer.TokenOperator) || p.peek().Lexeme != "|" {
		return first
	}
	patterns := []arena.Node{first}
	for p.check(lexer.TokenOperator) && p.peek().Lexeme == "|" {
		p.advance()
		patterns = append(patterns, p.parseAtomPattern())
	}
	return &arena.MatchOr{Base: arena.NewBase(p.pos()), Patterns: patterns}
}

func (p *Parser) parseAtomPattern() arena.Node {
	tok := p.peek()
	pos := p.posOf(tok)
	switch tok.Kind {
	case lexer.TokenIdent:
		if tok.Lexeme == "_" {
			p.advance()
			return &arena.MatchAs{Base: arena.NewBase(pos), Name: "_"}
		}
		// Bare identifier is a capture pattern unless followed by '(' (a
		// class pattern) or '.' (a dotted value pattern).
		save := p.advance()
		if p.check(lexer.TokenLParen) {
			cls := p.own(&arena.Name{ExprBase: arena.NewExprBase(pos), Id: save.Lexeme, Ctx: arena.Load})
			return p.finishMatchClass(pos, cls)
		}
		if p.check(lexer.TokenDot) {
			val := p.own(&arena.Name{ExprBase: arena.NewExprBase(pos), Id: save.Lexeme, Ctx: arena.Load})
			for p.match(lexer.TokenDot) {
				attr := p.consume(lexer.TokenIdent, "expect attribute name in pattern").Lexeme
				val = p.own(&arena.Attribute{ExprBase: arena.NewExprBase(pos), Value: val, Attr: attr, Ctx: arena.Load})
			}
			if p.check(lexer.TokenLParen) {
				return p.finishMatchClass(pos, val)
			}
			return &arena.MatchValue{Base: arena.NewBase(pos), Value: val}
		}
		return &arena.MatchAs{Base: arena.NewBase(pos), Name: save.Lexeme}
	case lexer.TokenTrue:
		p.advance()
		return &arena.MatchSingleton{Base: arena.NewBase(pos), Value: true}
	case lexer.TokenFalse:
		p.advance()
		return &arena.MatchSingleton{Base: arena.NewBase(pos), Value: false}
	case lexer.TokenNone:
		p.advance()
		return &arena.MatchSingleton{Base: arena.NewBase(pos), Value: nil}
	case lexer.TokenLBracket:
		return p.finishMatchSequence(pos, lexer.TokenRBracket)
	case lexer.TokenLParen:
		return p.finishMatchSequence(pos, lexer.TokenRParen)
	case lexer.TokenLBrace:
		return p.finishMatchMapping(pos)
	case lexer.TokenOperator:
		if tok.Lexeme == "*" {
			p.advance()
			name := p.consume(lexer.TokenIdent, "expect name after '*' in pattern").Lexeme
			return &arena.MatchStar{Base: arena.NewBase(pos), Name: name}
		}
	}
	return &arena.MatchValue{Base: arena.NewBase(pos), Value: p.parseBinary(0)}
}

func (p *Parser) finishMatchClass(pos arena.Pos, cls arena.Expr) arena.Node {
	p.advance() // '('
	var positional []arena.Node
	var kwdNames []string
	var kwdPatterns []arena.Node
	if !p.check(lexer.TokenRParen) {
		for {
			if p.check(lexer.TokenIdent) {
				save := p.peek()
				p.advance()
				if p.match(lexer.TokenAssignTok) {
					kwdNames = append(kwdNames, save.Lexeme)
					kwdPatterns = append(kwdPatterns, p.parsePattern())
					if !p.match(lexer.TokenComma) {
						break
					}
					continue
				}
				// Not a keyword pattern: reparse as a bare-name pattern by
				// synthesizing what parseAtomPattern would have produced.
				positional = append(positional, p.patternFromConsumedIdent(pos, save))
				if !p.match(lexer.TokenComma) {
					break
				}
				continue
			}
			positional = append(positional, p.parsePattern())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expect ')' closing class pattern")
	return &arena.MatchClass{Base: arena.NewBase(pos), Cls: cls, Patterns: positional, KwdNames: kwdNames, KwdPatterns: kwdPatterns}
}

func (p *Parser) patternFromConsumedIdent(pos arena.Pos, tok lexer.Token) arena.Node {
	if tok.Lexeme == "_" {
		return &arena.MatchAs{Base: arena.NewBase(pos), Name: "_"}
	}
	return &arena.MatchAs{Base: arena.NewBase(pos), Name: tok.Lexeme}
}

func (p *Parser) finishMatchSequence(pos arena.Pos, close lexer.TokenKind) arena.Node {
	p.advance() // opening bracket/paren
	var patterns []arena.Node
	if !p.check(close) {
		for {
			patterns = append(patterns, p.parsePattern())
			if !p.match(lexer.TokenComma) {
				break
			}
			if p.check(close) {
				break
			}
		}
	}
	p.consume(close, "expect closing bracket of sequence pattern")
	return &arena.MatchSequence{Base: arena.NewBase(pos), Patterns: patterns}
}

func (p *Parser) finishMatchMapping(pos arena.Pos) arena.Node {
	p.advance() // '{'
	var keys []arena.Expr
	var patterns []arena.Node
	rest := ""
	if !p.check(lexer.TokenRBrace) {
		for {
			if p.check(lexer.TokenOperator) && p.peek().Lexeme == "*" {
				p.advance()
				p.consume(lexer.TokenOperator, "expect second '*' of '**' in mapping pattern")
				rest = p.consume(lexer.TokenIdent, "expect name after '**' in mapping pattern").Lexeme
				break
			}
			k := p.parseBinary(0)
			p.consume(lexer.TokenColon, "expect ':' in mapping pattern")
			v := p.parsePattern()
			keys = append(keys, k)
			patterns = append(patterns, v)
			if !p.match(lexer.TokenComma) {
				break
			}
			if p.check(lexer.TokenRBrace) {
				break
			}
		}
	}
	p.consume(lexer.TokenRBrace, "expect '}' closing mapping pattern")
	return &arena.MatchMapping{Base: arena.NewBase(pos), Keys: keys, Patterns: patterns, Rest: rest}
}

func (p *Parser) returnStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	var value arena.Expr
	if !p.check(lexer.TokenNewline) && !p.check(lexer.TokenSemicolon) && !p.atEOF() && !p.check(lexer.TokenDedent) {
		value = p.parseExprOrTuple()
	}
	s := p.own2(&arena.Return{StmtBase: arena.NewStmtBase(pos), Value: value})
	p.endSimpleStmt()
	return s
}

func (p *Parser) raiseStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	var exc, cause arena.Expr
	if !p.check(lexer.TokenNewline) && !p.atEOF() {
		exc = p.Expression()
		if p.match(lexer.TokenFrom) {
			cause = p.Expression()
		}
	}
	s := p.own2(&arena.Raise{StmtBase: arena.NewStmtBase(pos), Exc: exc, Cause: cause})
	p.endSimpleStmt()
	return s
}

func (p *Parser) importStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	var names []arena.Alias
	for {
		names = append(names, p.parseAlias())
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	s := p.own2(&arena.Import{StmtBase: arena.NewStmtBase(pos), Names: names})
	p.endSimpleStmt()
	return s
}

func (p *Parser) importFromStmt() arena.Stmt {
	pos := p.pos()
	p.advance() // 'from'
	modName := p.dottedName()
	p.consume(lexer.TokenImport, "expect 'import' in from-import")
	var names []arena.Alias
	if p.match(lexer.TokenOperator) { // '*'
		names = append(names, arena.Alias{Name: "*"})
	} else {
		for {
			names = append(names, p.parseAlias())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	s := p.own2(&arena.ImportFrom{StmtBase: arena.NewStmtBase(pos), Module: modName, Names: names})
	p.endSimpleStmt()
	return s
}

func (p *Parser) parseAlias() arena.Alias {
	name := p.dottedName()
	alias := arena.Alias{Name: name}
	if p.match(lexer.TokenAs) {
		alias.AsName = p.consume(lexer.TokenIdent, "expect name after 'as'").Lexeme
	}
	return alias
}

func (p *Parser) dottedName() string {
	name := p.consume(lexer.TokenIdent, "expect module name").Lexeme
	for p.check(lexer.TokenDot) {
		p.advance()
		name += "." + p.consume(lexer.TokenIdent, "expect name after '.'").Lexeme
	}
	return name
}

func (p *Parser) globalStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	var names []string
	for {
		names = append(names, p.consume(lexer.TokenIdent, "expect name in global statement").Lexeme)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	s := p.own2(&arena.Global{StmtBase: arena.NewStmtBase(pos), Names: names})
	p.endSimpleStmt()
	return s
}

func (p *Parser) nonlocalStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	var names []string
	for {
		names = append(names, p.consume(lexer.TokenIdent, "expect name in nonlocal statement").Lexeme)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	s := p.own2(&arena.Nonlocal{StmtBase: arena.NewStmtBase(pos), Names: names})
	p.endSimpleStmt()
	return s
}

func (p *Parser) assertStmt() arena.Stmt {
	pos := p.pos()
	p.advance()
	test := p.Expression()
	var msg arena.Expr
	if p.match(lexer.TokenComma) {
		msg = p.Expression()
	}
	s := p.own2(&arena.Assert{StmtBase: arena.NewStmtBase(pos), Test: test, Msg: msg})
	p.endSimpleStmt()
	return s
}

// augAssignOps maps each augmented-assignment lexeme to its underlying
// binary operator, per spec §4.3's note that `x += 1` lowers to
// `x = x + 1` in SSA form (internal/ssa does that rewrite; the parser
// keeps AugAssign distinct so SEMA can still report it as one statement).
var augAssignOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	".*=": ".*", "./=": "./", "^=": "^",
}

// exprOrAssignStmt handles the remaining simple-statement forms that start
// with an expression: plain expression statements, `=` assignment
// (possibly chained/tupled), annotated assignment, and augmented
// assignment, plus `;`-separated inline sequences on one logical line.
func (p *Parser) exprOrAssignStmt() arena.Stmt {
	pos := p.pos()
	first := p.statementExprOrAssign()
	if !p.check(lexer.TokenSemicolon) {
		p.endSimpleStmt()
		return first
	}
	stmts := []arena.Stmt{first}
	for p.match(lexer.TokenSemicolon) {
		if p.check(lexer.TokenNewline) || p.atEOF() {
			break
		}
		stmts = append(stmts, p.statementExprOrAssign())
	}
	p.endSimpleStmt()
	return p.own2(&arena.Inline{StmtBase: arena.NewStmtBase(pos), Stmts: stmts})
}

// parseExprOrTuple parses one expression, or a bare comma-separated list of
// them collapsed into a TupleExpr — the right-hand side grammar for both
// plain expression statements and assignment values (`a, b = 1, 2`).
func (p *Parser) parseExprOrTuple() arena.Expr {
	pos := p.pos()
	first := p.Expression()
	if !p.check(lexer.TokenComma) {
		return first
	}
	exprs := []arena.Expr{first}
	for p.match(lexer.TokenComma) {
		if p.atStatementEnd() {
			break
		}
		exprs = append(exprs, p.Expression())
	}
	return p.own(&arena.TupleExpr{ExprBase: arena.NewExprBase(pos), Elts: exprs, Ctx: arena.Load})
}

func (p *Parser) atStatementEnd() bool {
	return p.check(lexer.TokenNewline) || p.check(lexer.TokenSemicolon) ||
		p.check(lexer.TokenAssignTok) || p.atEOF() || p.check(lexer.TokenDedent)
}

func (p *Parser) statementExprOrAssign() arena.Stmt {
	pos := p.pos()
	first := p.Expression()

	if p.check(lexer.TokenColon) {
		p.advance()
		annotation := p.parseTypeExpr()
		var value arena.Expr
		if p.match(lexer.TokenAssignTok) {
			value = p.parseExprOrTuple()
		}
		return p.own2(&arena.AnnAssign{StmtBase: arena.NewStmtBase(pos), Target: first, Annotation: annotation, Value: value})
	}

	if p.check(lexer.TokenAugAssign) {
		tok := p.advance()
		op := augAssignOps[tok.Lexeme]
		value := p.parseExprOrTuple()
		return p.own2(&arena.AugAssign{StmtBase: arena.NewStmtBase(pos), Target: first, Op: op, Value: value})
	}

	// A bare comma after the first expression starts a tuple target or a
	// bare tuple expression statement; either way it collapses to one Expr
	// before we check for '='.
	lhs := first
	if p.check(lexer.TokenComma) {
		exprs := []arena.Expr{first}
		for p.match(lexer.TokenComma) {
			if p.atStatementEnd() {
				break
			}
			exprs = append(exprs, p.Expression())
		}
		lhs = p.own(&arena.TupleExpr{ExprBase: arena.NewExprBase(pos), Elts: exprs, Ctx: arena.Store})
	}

	if p.check(lexer.TokenAssignTok) {
		chain := []arena.Expr{lhs}
		for p.match(lexer.TokenAssignTok) {
			chain = append(chain, p.parseExprOrTuple())
		}
		// The last parsed expression is the value; everything before it
		// (chained `a = b = c`) is a target.
		value := chain[len(chain)-1]
		targets := chain[:len(chain)-1]
		return p.own2(&arena.Assign{StmtBase: arena.NewStmtBase(pos), Targets: targets, Value: value})
	}

	return p.own2(&arena.ExprStmt{StmtBase: arena.NewStmtBase(pos), Value: lhs})
}
