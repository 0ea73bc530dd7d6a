package parser

import (
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/lexer"
)

// fixedPrecedence covers the comparison/boolean operators, which aren't
// part of the lexer's user-extensible operator trie (spec §4.2) but still
// participate in the same precedence-climbing loop. operatorAt lifts every
// trie precedence by 20, so these always bind looser than any arithmetic
// operator in the trie's default table (spec §4.2 default operators top
// out at precedence 4).
var fixedPrecedence = map[lexer.TokenKind]int{
	lexer.TokenOr:    11,
	lexer.TokenAnd:   12,
	lexer.TokenEqEq:  13,
	lexer.TokenNotEq: 13,
	lexer.TokenLT:    13,
	lexer.TokenGT:    13,
	lexer.TokenLE:    13,
	lexer.TokenGE:    13,
	lexer.TokenIn:    13,
}

// Expression is the entry point: parse_expression calls parse_primary then
// climbs while the current token's precedence is >= the caller's minimum
// (spec §4.3), plus the lowest-precedence ternary `a if cond else b` and
// lambda forms wrapped around that climb.
func (p *Parser) Expression() arena.Expr {
	if p.check(lexer.TokenLambda) {
		return p.parseLambda()
	}
	left := p.parseBinary(0)
	if p.check(lexer.TokenIf) {
		pos := p.pos()
		p.advance()
		cond := p.parseBinary(0)
		p.consume(lexer.TokenElse, "expect 'else' in conditional expression")
		orelse := p.Expression()
		return p.own(&arena.IfExp{ExprBase: arena.NewExprBase(pos), Test: cond, Body: left, Orelse: orelse})
	}
	return left
}

func (p *Parser) parseLambda() arena.Expr {
	pos := p.pos()
	p.advance() // 'lambda'
	var params []arena.Param
	if !p.check(lexer.TokenColon) {
		for {
			name := p.consume(lexer.TokenIdent, "expect parameter name").Lexeme
			param := arena.Param{Name: name}
			if p.match(lexer.TokenAssignTok) {
				param.Default = p.Expression()
			}
			params = append(params, param)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenColon, "expect ':' after lambda parameters")
	body := p.Expression()
	return p.own(&arena.Lambda{ExprBase: arena.NewExprBase(pos), Params: params, Body: body})
}

// parseBinary is the precedence-climbing loop itself.
func (p *Parser) parseBinary(minPrec int) arena.Expr {
	left := p.parseUnary()
	for {
		tok := p.peek()
		prec, lexeme, leftAssoc, ok := p.operatorAt(tok)
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		next := prec + 1
		if !leftAssoc {
			next = prec
		}
		right := p.parseBinary(next)
		pos := arena.Pos{Line: tok.Line, Col: tok.Col, File: p.file}
		left = p.combine(pos, left, lexeme, right)
	}
	return left
}

func (p *Parser) combine(pos arena.Pos, left arena.Expr, lexeme string, right arena.Expr) arena.Expr {
	switch {
	case isCompareOp(lexeme):
		if cmp, ok := left.(*arena.Compare); ok {
			cmp.Ops = append(cmp.Ops, lexeme)
			cmp.Comparators = append(cmp.Comparators, right)
			return cmp
		}
		return p.own(&arena.Compare{ExprBase: arena.NewExprBase(pos), Left: left, Ops: []string{lexeme}, Comparators: []arena.Expr{right}})
	case lexeme == "and" || lexeme == "or":
		return p.own(&arena.BoolOp{ExprBase: arena.NewExprBase(pos), Op: lexeme, Values: []arena.Expr{left, right}})
	default:
		return p.own(&arena.BinOp{ExprBase: arena.NewExprBase(pos), Left: left, Op: lexeme, Right: right})
	}
}

func isCompareOp(lexeme string) bool {
	switch lexeme {
	case "==", "!=", "<", ">", "<=", ">=", "in":
		return true
	}
	return false
}

// operatorAt reports precedence/associativity for tok, consulting the
// fixed comparison/boolean table first and the lexer's operator trie
// second.
func (p *Parser) operatorAt(tok lexer.Token) (prec int, lexeme string, leftAssoc bool, ok bool) {
	if prec, found := fixedPrecedence[tok.Kind]; found {
		return prec, string(tok.Kind), true, true
	}
	if tok.Kind == lexer.TokenOperator {
		if cfg, found := p.lex.Trie().Precedence(tok.Lexeme); found {
			return cfg.Precedence + 20, tok.Lexeme, cfg.LeftAssociative, true
		}
	}
	return 0, "", false, false
}

func (p *Parser) parseUnary() arena.Expr {
	tok := p.peek()
	switch {
	case tok.Kind == lexer.TokenNot:
		p.advance()
		return p.own(&arena.UnaryOp{ExprBase: arena.NewExprBase(p.posOf(tok)), Op: "not", Operand: p.parseUnary()})
	case tok.Kind == lexer.TokenOperator && (tok.Lexeme == "-" || tok.Lexeme == "+"):
		p.advance()
		return p.own(&arena.UnaryOp{ExprBase: arena.NewExprBase(p.posOf(tok)), Op: tok.Lexeme, Operand: p.parseUnary()})
	case tok.Kind == lexer.TokenAwait:
		p.advance()
		return p.own(&arena.Await{ExprBase: arena.NewExprBase(p.posOf(tok)), Value: p.parseUnary()})
	}
	if tok.Kind == lexer.TokenOperator && tok.Lexeme == "*" {
		p.advance()
		return p.own(&arena.Starred{ExprBase: arena.NewExprBase(p.posOf(tok)), Value: p.parseUnary(), Ctx: arena.Load})
	}
	return p.parsePostfix()
}

func (p *Parser) posOf(tok lexer.Token) arena.Pos {
	return arena.Pos{Line: tok.Line, Col: tok.Col, File: p.file}
}

// parseTargetList parses a `for`/comprehension assignment target: one or
// more postfix expressions (name, attribute, subscript, or a parenthesized
// nested target list) separated by commas. Unlike Expression(), this never
// climbs into parseBinary, so the 'in' that follows a for-target (which
// fixedPrecedence treats as a comparison operator) is correctly left for
// the caller to consume rather than swallowed as part of the target.
func (p *Parser) parseTargetList() arena.Expr {
	pos := p.pos()
	first := p.parsePostfix()
	if !p.check(lexer.TokenComma) {
		return first
	}
	elts := []arena.Expr{first}
	for p.match(lexer.TokenComma) {
		if p.check(lexer.TokenIn) {
			break
		}
		elts = append(elts, p.parsePostfix())
	}
	return p.own(&arena.TupleExpr{ExprBase: arena.NewExprBase(pos), Elts: elts, Ctx: arena.Store})
}

// parsePostfix handles call/attribute/subscript chains following a primary
// expression, grounded on the teacher's parseCall/finishCall.
func (p *Parser) parsePostfix() arena.Expr {
	expr := p.parsePrimary()
	for {
		switch {
		case p.check(lexer.TokenLParen):
			expr = p.finishCall(expr)
		case p.check(lexer.TokenDot):
			pos := p.pos()
			p.advance()
			attr := p.consume(lexer.TokenIdent, "expect attribute name after '.'").Lexeme
			expr = p.own(&arena.Attribute{ExprBase: arena.NewExprBase(pos), Value: expr, Attr: attr, Ctx: arena.Load})
		case p.check(lexer.TokenLBracket):
			expr = p.finishSubscript(expr)
		default:
			return expr
		}
	}
}

// finishCall parses a call's argument list. Since the lexer only buffers
// one token of lookahead, keyword arguments (`name=value`) are detected
// after the fact: an argument expression that parsed down to a bare,
// unresolved Name immediately followed by '=' is reinterpreted as a
// keyword rather than backtracked into, avoiding a second lookahead
// token on the lexer itself.
func (p *Parser) finishCall(callee arena.Expr) arena.Expr {
	pos := p.pos()
	p.advance() // '('
	var args []arena.Expr
	var kwargs []arena.Keyword
	if !p.check(lexer.TokenRParen) {
		for {
			arg := p.Expression()
			if name, ok := arg.(*arena.Name); ok && p.check(lexer.TokenAssignTok) {
				p.advance() // '='
				kwargs = append(kwargs, arena.Keyword{Name: name.Id, Value: p.Expression()})
			} else {
				args = append(args, arg)
			}
			if !p.match(lexer.TokenComma) {
				break
			}
			if p.check(lexer.TokenRParen) { // trailing comma
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expect ')' after arguments")
	return p.own(&arena.Call{ExprBase: arena.NewExprBase(pos), Func: callee, Args: args, Keywords: kwargs})
}

func (p *Parser) finishSubscript(value arena.Expr) arena.Expr {
	pos := p.pos()
	p.advance() // '['
	index := p.parseSliceOrIndex()
	p.consume(lexer.TokenRBracket, "expect ']' after subscript")
	return p.own(&arena.Subscript{ExprBase: arena.NewExprBase(pos), Value: value, Index: index, Ctx: arena.Load})
}

// parseSliceOrIndex parses `i`, `i:j`, `i:j:k` with any part optional,
// producing a Slice node when a ':' is present and a bare expression
// otherwise.
func (p *Parser) parseSliceOrIndex() arena.Expr {
	pos := p.pos()
	var lower, upper, step arena.Expr
	if !p.check(lexer.TokenColon) {
		lower = p.Expression()
		if !p.check(lexer.TokenColon) {
			return lower
		}
	}
	p.advance() // ':'
	if !p.check(lexer.TokenColon) && !p.check(lexer.TokenRBracket) {
		upper = p.Expression()
	}
	if p.match(lexer.TokenColon) {
		if !p.check(lexer.TokenRBracket) {
			step = p.Expression()
		}
	}
	return p.own(&arena.Slice{ExprBase: arena.NewExprBase(pos), Lower: lower, Upper: upper, Step: step})
}

func (p *Parser) parsePrimary() arena.Expr {
	tok := p.peek()
	pos := p.posOf(tok)
	switch tok.Kind {
	case lexer.TokenInt:
		p.advance()
		return p.own(&arena.Constant{ExprBase: arena.NewExprBase(pos), Kind: arena.ConstInt, IntVal: tok.IntVal})
	case lexer.TokenFloat:
		p.advance()
		return p.own(&arena.Constant{ExprBase: arena.NewExprBase(pos), Kind: arena.ConstFloat, FloatVal: tok.FloatVal})
	case lexer.TokenString, lexer.TokenDocstring:
		p.advance()
		return p.own(&arena.Constant{ExprBase: arena.NewExprBase(pos), Kind: arena.ConstString, StrVal: tok.StrVal})
	case lexer.TokenFStringStart:
		p.advance()
		return p.parseFString(tok)
	case lexer.TokenTrue:
		p.advance()
		return p.own(&arena.Constant{ExprBase: arena.NewExprBase(pos), Kind: arena.ConstBool, BoolVal: true})
	case lexer.TokenFalse:
		p.advance()
		return p.own(&arena.Constant{ExprBase: arena.NewExprBase(pos), Kind: arena.ConstBool, BoolVal: false})
	case lexer.TokenNone:
		p.advance()
		return p.own(&arena.Constant{ExprBase: arena.NewExprBase(pos), Kind: arena.ConstNone})
	case lexer.TokenIdent:
		p.advance()
		return p.own(&arena.Name{ExprBase: arena.NewExprBase(pos), Id: tok.Lexeme, Ctx: arena.Load})
	case lexer.TokenLParen:
		return p.parseParenOrTuple()
	case lexer.TokenLBracket:
		return p.parseListOrComp()
	case lexer.TokenLBrace:
		return p.parseSetOrDict()
	case lexer.TokenYield:
		return p.parseYield()
	}
	err := lyerrors.NewSyntaxError("unexpected token in expression (got "+string(tok.Kind)+" "+tok.Lexeme+")", p.file, tok.Line, tok.Col)
	if p.sourceLines != nil && tok.Line > 0 && tok.Line <= len(p.sourceLines) {
		err = err.WithSource(p.sourceLines[tok.Line-1])
	}
	panic(parseError{err})
}

func (p *Parser) parseParenOrTuple() arena.Expr {
	pos := p.pos()
	p.advance() // '('
	if p.match(lexer.TokenRParen) {
		return p.own(&arena.TupleExpr{ExprBase: arena.NewExprBase(pos), Ctx: arena.Load})
	}
	first := p.Expression()
	if p.check(lexer.TokenFor) {
		return p.finishGeneratorExp(pos, first)
	}
	if !p.check(lexer.TokenComma) {
		p.consume(lexer.TokenRParen, "expect ')' after expression")
		return first
	}
	elts := []arena.Expr{first}
	for p.match(lexer.TokenComma) {
		if p.check(lexer.TokenRParen) {
			break
		}
		elts = append(elts, p.Expression())
	}
	p.consume(lexer.TokenRParen, "expect ')' after tuple")
	return p.own(&arena.TupleExpr{ExprBase: arena.NewExprBase(pos), Elts: elts, Ctx: arena.Load})
}

func (p *Parser) parseListOrComp() arena.Expr {
	pos := p.pos()
	p.advance() // '['
	if p.match(lexer.TokenRBracket) {
		return p.own(&arena.ListExpr{ExprBase: arena.NewExprBase(pos), Ctx: arena.Load})
	}
	first := p.Expression()
	if p.check(lexer.TokenFor) {
		gens := p.parseComprehensionClauses()
		p.consume(lexer.TokenRBracket, "expect ']' after comprehension")
		return p.own(&arena.ListComp{ExprBase: arena.NewExprBase(pos), Elt: first, Generators: gens})
	}
	elts := []arena.Expr{first}
	for p.match(lexer.TokenComma) {
		if p.check(lexer.TokenRBracket) {
			break
		}
		elts = append(elts, p.Expression())
	}
	p.consume(lexer.TokenRBracket, "expect ']' after list literal")
	return p.own(&arena.ListExpr{ExprBase: arena.NewExprBase(pos), Elts: elts, Ctx: arena.Load})
}

func (p *Parser) parseSetOrDict() arena.Expr {
	pos := p.pos()
	p.advance() // '{'
	if p.match(lexer.TokenRBrace) {
		return p.own(&arena.DictExpr{ExprBase: arena.NewExprBase(pos)})
	}
	firstKey := p.Expression()
	if p.match(lexer.TokenColon) {
		firstVal := p.Expression()
		if p.check(lexer.TokenFor) {
			gens := p.parseComprehensionClauses()
			p.consume(lexer.TokenRBrace, "expect '}' after dict comprehension")
			return p.own(&arena.DictComp{ExprBase: arena.NewExprBase(pos), Key: firstKey, Value: firstVal, Generators: gens})
		}
		keys := []arena.Expr{firstKey}
		vals := []arena.Expr{firstVal}
		for p.match(lexer.TokenComma) {
			if p.check(lexer.TokenRBrace) {
				break
			}
			k := p.Expression()
			p.consume(lexer.TokenColon, "expect ':' in dict literal")
			v := p.Expression()
			keys = append(keys, k)
			vals = append(vals, v)
		}
		p.consume(lexer.TokenRBrace, "expect '}' after dict literal")
		return p.own(&arena.DictExpr{ExprBase: arena.NewExprBase(pos), Keys: keys, Values: vals})
	}
	if p.check(lexer.TokenFor) {
		gens := p.parseComprehensionClauses()
		p.consume(lexer.TokenRBrace, "expect '}' after set comprehension")
		return p.own(&arena.SetComp{ExprBase: arena.NewExprBase(pos), Elt: firstKey, Generators: gens})
	}
	elts := []arena.Expr{firstKey}
	for p.match(lexer.TokenComma) {
		if p.check(lexer.TokenRBrace) {
			break
		}
		elts = append(elts, p.Expression())
	}
	p.consume(lexer.TokenRBrace, "expect '}' after set literal")
	return p.own(&arena.SetExpr{ExprBase: arena.NewExprBase(pos), Elts: elts})
}

func (p *Parser) parseComprehensionClauses() []arena.Comprehension {
	var gens []arena.Comprehension
	for p.check(lexer.TokenFor) {
		p.advance()
		target := p.parseTargetList()
		p.consume(lexer.TokenIn, "expect 'in' in comprehension")
		iter := p.parseBinary(0)
		var ifs []arena.Expr
		for p.check(lexer.TokenIf) {
			p.advance()
			ifs = append(ifs, p.parseBinary(0))
		}
		gens = append(gens, arena.Comprehension{Target: target, Iter: iter, Ifs: ifs})
	}
	return gens
}

func (p *Parser) finishGeneratorExp(pos arena.Pos, elt arena.Expr) arena.Expr {
	gens := p.parseComprehensionClauses()
	p.consume(lexer.TokenRParen, "expect ')' after generator expression")
	return p.own(&arena.GeneratorExp{ExprBase: arena.NewExprBase(pos), Elt: elt, Generators: gens})
}

func (p *Parser) parseYield() arena.Expr {
	pos := p.pos()
	p.advance()
	if p.match(lexer.TokenFrom) {
		return p.own(&arena.YieldFrom{ExprBase: arena.NewExprBase(pos), Value: p.Expression()})
	}
	if p.check(lexer.TokenNewline) || p.check(lexer.TokenRParen) || p.check(lexer.TokenDedent) {
		return p.own(&arena.Yield{ExprBase: arena.NewExprBase(pos)})
	}
	return p.own(&arena.Yield{ExprBase: arena.NewExprBase(pos), Value: p.Expression()})
}

