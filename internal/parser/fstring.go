package parser

import (
	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/buffer"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/lexer"
)

// parseFString splits an f-string literal's raw interior text (spec §4.2)
// into literal runs and {expr[:spec]} interpolation runs, building a
// JoinedStr of Constant(string) and FormattedValue parts. Each
// interpolation run is re-lexed and re-parsed as an independent expression
// with a fresh Lexer/Parser, since the outer lexer tracks no brace-nesting
// or quoting state for what's inside `{...}`.
func (p *Parser) parseFString(tok lexer.Token) arena.Expr {
	pos := p.posOf(tok)
	runes := []rune(tok.StrVal)

	var parts []arena.Expr
	var lit []rune
	flushLit := func() {
		if len(lit) > 0 {
			parts = append(parts, p.own(&arena.Constant{
				ExprBase: arena.NewExprBase(pos),
				Kind:     arena.ConstString,
				StrVal:   string(lit),
			}))
			lit = nil
		}
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '{' && i+1 < len(runes) && runes[i+1] == '{':
			lit = append(lit, '{')
			i++
		case c == '}' && i+1 < len(runes) && runes[i+1] == '}':
			lit = append(lit, '}')
			i++
		case c == '{':
			depth := 1
			j := i + 1
			for j < len(runes) && depth > 0 {
				switch runes[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			if j >= len(runes) {
				panic(parseError{lyerrors.NewSyntaxError("unterminated f-string interpolation", p.file, tok.Line, tok.Col)})
			}
			flushLit()
			parts = append(parts, p.parseFStringField(string(runes[i+1:j]), pos))
			i = j
		default:
			lit = append(lit, c)
		}
	}
	flushLit()

	return p.own(&arena.JoinedStr{ExprBase: arena.NewExprBase(pos), Values: parts})
}

func (p *Parser) parseFStringField(body string, pos arena.Pos) arena.Expr {
	exprText, spec := splitFormatSpec(body)

	sub := buffer.NewString(exprText, p.file)
	subParser := New(lexer.New(sub), p.arena, p.file)
	val := subParser.Expression()
	if subParser.Errors.HasErrors() {
		panic(parseError{subParser.Errors.Errors()[0]})
	}

	return p.own(&arena.FormattedValue{ExprBase: arena.NewExprBase(pos), Value: val, Spec: spec})
}

// splitFormatSpec finds the top-level ':' separating an interpolation's
// expression from its optional format spec (e.g. `{x:.2f}`), ignoring
// colons nested inside brackets or quotes (`{x[a:b]}`).
func splitFormatSpec(body string) (expr, spec string) {
	depth := 0
	var inStr rune
	runes := []rune(body)
	for i, c := range runes {
		switch {
		case inStr != 0:
			if c == inStr {
				inStr = 0
			}
		case c == '"' || c == '\'':
			inStr = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ':' && depth == 0:
			return string(runes[:i]), string(runes[i+1:])
		}
	}
	return body, ""
}
