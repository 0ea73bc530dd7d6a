package parser

import (
	"github.com/lython/lython/internal/arena"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/lexer"
)

// builtinTypeNames are the annotation spellings that resolve to a primitive
// type rather than a user class, mirroring sema.builtinByName's switch.
var builtinTypeNames = map[string]bool{
	"Float": true, "Int": true, "Str": true, "Bool": true, "None": true, "Type": true,
}

// parseTypeExpr parses a type annotation per spec §3's glossary, which gives
// Arrow's surface syntax explicitly — `(T1, …, Tn) -> R` — and lists the
// other six type-expression kinds (ArrayType, DictType, SetType, TupleType,
// BuiltinType, ClassType) as part of the same closed AST union without
// spelling out their own surface syntax. Container/tuple bracket syntax
// below is this package's own design, grounded only in the printer's
// existing round-trip form (printer.go's ArrayTypeExpr/ArrowTypeExpr cases
// already emit `[T]` and `(T1, T2) -> R`); see DESIGN.md.
//
// Grammar:
//
//	typeExpr  := arrowOrTuple | "[" typeExpr "]" | "{" typeExpr ["," typeExpr] "}" | IDENT
//	arrowOrTuple := "(" [typeExpr {"," typeExpr}] ")" ["->" typeExpr]
//
// A parenthesized list followed by "->" is an Arrow; otherwise, more than
// one element makes it a Tuple, and exactly one element is just that
// element's type (parenthesized grouping, so `(Int)` means `Int`, not a
// one-element tuple).
func (p *Parser) parseTypeExpr() arena.Expr {
	pos := p.pos()
	switch {
	case p.check(lexer.TokenLParen):
		return p.parseArrowOrTupleType(pos)
	case p.check(lexer.TokenLBracket):
		p.advance()
		elem := p.parseTypeExpr()
		p.consume(lexer.TokenRBracket, "expect ']' to close array type")
		return p.own(&arena.ArrayTypeExpr{ExprBase: arena.NewExprBase(pos), Elem: elem})
	case p.check(lexer.TokenLBrace):
		p.advance()
		key := p.parseTypeExpr()
		if p.match(lexer.TokenColon) {
			val := p.parseTypeExpr()
			p.consume(lexer.TokenRBrace, "expect '}' to close dict type")
			return p.own(&arena.DictTypeExpr{ExprBase: arena.NewExprBase(pos), Key: key, Value: val})
		}
		p.consume(lexer.TokenRBrace, "expect '}' to close set type")
		return p.own(&arena.SetTypeExpr{ExprBase: arena.NewExprBase(pos), Elem: key})
	default:
		name := p.consume(lexer.TokenIdent, "expect a type name").Lexeme
		if builtinTypeNames[name] {
			return p.own(&arena.BuiltinTypeExpr{ExprBase: arena.NewExprBase(pos), Name: name})
		}
		return p.own(&arena.ClassTypeExpr{ExprBase: arena.NewExprBase(pos), Name: name})
	}
}

func (p *Parser) parseArrowOrTupleType(pos arena.Pos) arena.Expr {
	p.advance() // '('
	var elems []arena.Expr
	if !p.check(lexer.TokenRParen) {
		for {
			elems = append(elems, p.parseTypeExpr())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expect ')' to close type")

	if p.match(lexer.TokenArrow) {
		ret := p.parseTypeExpr()
		arrow := &arena.ArrowTypeExpr{ExprBase: arena.NewExprBase(pos), Params: elems, Return: ret}
		owned := p.own(arrow).(*arena.ArrowTypeExpr)
		// spec §3/§9/§8: has_circle is enforced on every Arrow mutator,
		// here the only site that builds one from source text.
		if arena.HasCircle(owned) {
			p.Errors.Add(&lyerrors.LythonError{
				Kind:     lyerrors.TypeError,
				Message:  "Arrow type refers to itself transitively",
				Location: lyerrors.SourceLocation{File: pos.File, Line: pos.Line, Column: pos.Col},
			})
		}
		return owned
	}
	if len(elems) == 1 {
		return elems[0]
	}
	return p.own(&arena.TupleTypeExpr{ExprBase: arena.NewExprBase(pos), Elems: elems})
}
