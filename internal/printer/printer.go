// Package printer renders an AST back to Lython source, grounded on the
// teacher's internal/formatter.Formatter (indent-tracking strings.Builder
// walk over the concrete statement types) but driven off this repo's own
// tagged-union AST instead of Sentra's parser.Stmt/Expr set. Used by the
// CLI's dump-ast command and by this package's round-trip tests (spec §8:
// "pretty(parse(S)) is parseable and produces a tree ≡ parse(S) modulo
// whitespace").
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lython/lython/internal/arena"
)

// Printer accumulates formatted source, tracking block indentation the way
// the teacher's Formatter does.
type Printer struct {
	indent int
	out    strings.Builder
}

// Print renders an entire module body as top-level statements.
func Print(body []arena.Stmt) string {
	p := &Printer{}
	p.stmts(body)
	return p.out.String()
}

// PrintStmt renders a single statement (used by tests exercising one
// construct at a time).
func PrintStmt(s arena.Stmt) string {
	p := &Printer{}
	p.stmt(s)
	return strings.TrimSuffix(p.out.String(), "\n")
}

// PrintExpr renders a single expression with no trailing newline.
func PrintExpr(e arena.Expr) string {
	p := &Printer{}
	p.expr(e)
	return p.out.String()
}

func (p *Printer) writeIndent() { p.out.WriteString(strings.Repeat("    ", p.indent)) }

func (p *Printer) line(s string) {
	p.writeIndent()
	p.out.WriteString(s)
	p.out.WriteString("\n")
}

func (p *Printer) stmts(body []arena.Stmt) {
	for _, s := range body {
		p.stmt(s)
	}
}

func (p *Printer) block(body []arena.Stmt) {
	p.indent++
	if len(body) == 0 {
		p.line("pass")
	} else {
		p.stmts(body)
	}
	p.indent--
}

func (p *Printer) stmt(stmt arena.Stmt) {
	switch s := stmt.(type) {
	case *arena.FunctionDef:
		p.functionDef(s)
	case *arena.ClassDef:
		p.classDef(s)
	case *arena.If:
		p.writeIndent()
		p.out.WriteString("if ")
		p.expr(s.Test)
		p.out.WriteString(":\n")
		p.block(s.Body)
		if len(s.Orelse) > 0 {
			p.line("else:")
			p.block(s.Orelse)
		}
	case *arena.While:
		p.writeIndent()
		p.out.WriteString("while ")
		p.expr(s.Test)
		p.out.WriteString(":\n")
		p.block(s.Body)
		if len(s.Orelse) > 0 {
			p.line("else:")
			p.block(s.Orelse)
		}
	case *arena.For:
		p.writeIndent()
		p.out.WriteString("for ")
		p.expr(s.Target)
		p.out.WriteString(" in ")
		p.expr(s.Iter)
		p.out.WriteString(":\n")
		p.block(s.Body)
		if len(s.Orelse) > 0 {
			p.line("else:")
			p.block(s.Orelse)
		}
	case *arena.With:
		p.writeIndent()
		p.out.WriteString("with ")
		for i, item := range s.Items {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.expr(item.ContextExpr)
			if item.OptionalVars != nil {
				p.out.WriteString(" as ")
				p.expr(item.OptionalVars)
			}
		}
		p.out.WriteString(":\n")
		p.block(s.Body)
	case *arena.Try:
		p.line("try:")
		p.block(s.Body)
		for _, h := range s.Handlers {
			p.writeIndent()
			p.out.WriteString("except")
			if h.ExcType != nil {
				p.out.WriteString(" ")
				p.expr(h.ExcType)
				if h.Name != "" {
					p.out.WriteString(" as " + h.Name)
				}
			}
			p.out.WriteString(":\n")
			p.block(h.Body)
		}
		if len(s.Orelse) > 0 {
			p.line("else:")
			p.block(s.Orelse)
		}
		if len(s.Finally) > 0 {
			p.line("finally:")
			p.block(s.Finally)
		}
	case *arena.Match:
		p.writeIndent()
		p.out.WriteString("match ")
		p.expr(s.Subject)
		p.out.WriteString(":\n")
		p.indent++
		for _, c := range s.Cases {
			p.writeIndent()
			p.out.WriteString("case ")
			p.pattern(c.Pattern)
			if c.Guard != nil {
				p.out.WriteString(" if ")
				p.expr(c.Guard)
			}
			p.out.WriteString(":\n")
			p.block(c.Body)
		}
		p.indent--
	case *arena.Assign:
		p.writeIndent()
		for i, t := range s.Targets {
			if i > 0 {
				p.out.WriteString(" = ")
			}
			p.expr(t)
		}
		p.out.WriteString(" = ")
		p.expr(s.Value)
		p.out.WriteString("\n")
	case *arena.AnnAssign:
		p.writeIndent()
		p.expr(s.Target)
		p.out.WriteString(": ")
		p.expr(s.Annotation)
		if s.Value != nil {
			p.out.WriteString(" = ")
			p.expr(s.Value)
		}
		p.out.WriteString("\n")
	case *arena.AugAssign:
		p.writeIndent()
		p.expr(s.Target)
		p.out.WriteString(" " + s.Op + "= ")
		p.expr(s.Value)
		p.out.WriteString("\n")
	case *arena.Return:
		p.writeIndent()
		p.out.WriteString("return")
		if s.Value != nil {
			p.out.WriteString(" ")
			p.expr(s.Value)
		}
		p.out.WriteString("\n")
	case *arena.Raise:
		p.writeIndent()
		p.out.WriteString("raise")
		if s.Exc != nil {
			p.out.WriteString(" ")
			p.expr(s.Exc)
		}
		if s.Cause != nil {
			p.out.WriteString(" from ")
			p.expr(s.Cause)
		}
		p.out.WriteString("\n")
	case *arena.Import:
		p.writeIndent()
		p.out.WriteString("import ")
		p.aliases(s.Names)
		p.out.WriteString("\n")
	case *arena.ImportFrom:
		p.writeIndent()
		p.out.WriteString("from " + s.Module + " import ")
		p.aliases(s.Names)
		p.out.WriteString("\n")
	case *arena.Global:
		p.line("global " + strings.Join(s.Names, ", "))
	case *arena.Nonlocal:
		p.line("nonlocal " + strings.Join(s.Names, ", "))
	case *arena.Pass:
		p.line("pass")
	case *arena.Break:
		p.line("break")
	case *arena.Continue:
		p.line("continue")
	case *arena.Assert:
		p.writeIndent()
		p.out.WriteString("assert ")
		p.expr(s.Test)
		if s.Msg != nil {
			p.out.WriteString(", ")
			p.expr(s.Msg)
		}
		p.out.WriteString("\n")
	case *arena.ExprStmt:
		p.writeIndent()
		p.expr(s.Value)
		p.out.WriteString("\n")
	case *arena.Inline:
		p.writeIndent()
		for i, sub := range s.Stmts {
			if i > 0 {
				p.out.WriteString("; ")
			}
			p.out.WriteString(strings.TrimSuffix(PrintStmt(sub), "\n"))
		}
		p.out.WriteString("\n")
	default:
		p.line(fmt.Sprintf("<unprintable %T>", s))
	}
}

func (p *Printer) aliases(names []arena.Alias) {
	for i, a := range names {
		if i > 0 {
			p.out.WriteString(", ")
		}
		p.out.WriteString(a.Name)
		if a.AsName != "" {
			p.out.WriteString(" as " + a.AsName)
		}
	}
}

func (p *Printer) functionDef(s *arena.FunctionDef) {
	p.writeIndent()
	if s.IsAsync {
		p.out.WriteString("async ")
	}
	p.out.WriteString("def " + s.Name + "(")
	for i, param := range s.Params {
		if i > 0 {
			p.out.WriteString(", ")
		}
		p.out.WriteString(param.Name)
		if param.Annotation != nil {
			p.out.WriteString(": ")
			p.expr(param.Annotation)
		}
		if param.Default != nil {
			p.out.WriteString(" = ")
			p.expr(param.Default)
		}
	}
	p.out.WriteString(")")
	if s.ReturnType != nil {
		p.out.WriteString(" -> ")
		p.expr(s.ReturnType)
	}
	p.out.WriteString(":\n")
	p.indent++
	if s.Docstring != "" {
		p.line(strconv.Quote(s.Docstring))
	}
	if len(s.Body) == 0 && s.Docstring == "" {
		p.line("pass")
	} else {
		p.stmts(s.Body)
	}
	p.indent--
}

func (p *Printer) classDef(s *arena.ClassDef) {
	p.writeIndent()
	p.out.WriteString("class " + s.Name)
	if len(s.Bases) > 0 {
		p.out.WriteString("(")
		for i, b := range s.Bases {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.expr(b)
		}
		p.out.WriteString(")")
	}
	p.out.WriteString(":\n")
	p.indent++
	if s.Docstring != "" {
		p.line(strconv.Quote(s.Docstring))
	}
	if len(s.Body) == 0 && s.Docstring == "" {
		p.line("pass")
	} else {
		p.stmts(s.Body)
	}
	p.indent--
}

func (p *Printer) pattern(pat arena.Node) {
	switch n := pat.(type) {
	case *arena.MatchValue:
		p.expr(n.Value)
	case *arena.MatchSingleton:
		switch v := n.Value.(type) {
		case bool:
			if v {
				p.out.WriteString("True")
			} else {
				p.out.WriteString("False")
			}
		default:
			p.out.WriteString("None")
		}
	case *arena.MatchClass:
		p.expr(n.Cls)
		p.out.WriteString("(")
		for i, sub := range n.Patterns {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.pattern(sub)
		}
		for i, name := range n.KwdNames {
			if i > 0 || len(n.Patterns) > 0 {
				p.out.WriteString(", ")
			}
			p.out.WriteString(name + "=")
			p.pattern(n.KwdPatterns[i])
		}
		p.out.WriteString(")")
	case *arena.MatchMapping:
		p.out.WriteString("{")
		for i := range n.Keys {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.expr(n.Keys[i])
			p.out.WriteString(": ")
			p.pattern(n.Patterns[i])
		}
		if n.Rest != "" {
			if len(n.Keys) > 0 {
				p.out.WriteString(", ")
			}
			p.out.WriteString("**" + n.Rest)
		}
		p.out.WriteString("}")
	case *arena.MatchAs:
		if n.Pattern != nil {
			p.pattern(n.Pattern)
			p.out.WriteString(" as ")
		}
		p.out.WriteString(n.Name)
	case *arena.MatchOr:
		for i, alt := range n.Patterns {
			if i > 0 {
				p.out.WriteString(" | ")
			}
			p.pattern(alt)
		}
	case *arena.MatchSequence:
		p.out.WriteString("[")
		for i, el := range n.Patterns {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.pattern(el)
		}
		p.out.WriteString("]")
	case *arena.MatchStar:
		p.out.WriteString("*" + n.Name)
	case nil:
		p.out.WriteString("_")
	default:
		p.out.WriteString(fmt.Sprintf("<unprintable pattern %T>", n))
	}
}

func (p *Printer) expr(e arena.Expr) {
	switch n := e.(type) {
	case nil:
		return
	case *arena.Constant:
		p.constant(n)
	case *arena.Name:
		p.out.WriteString(n.Id)
	case *arena.BinOp:
		p.out.WriteString("(")
		p.expr(n.Left)
		p.out.WriteString(" " + n.Op + " ")
		p.expr(n.Right)
		p.out.WriteString(")")
	case *arena.BoolOp:
		p.out.WriteString("(")
		for i, v := range n.Values {
			if i > 0 {
				p.out.WriteString(" " + n.Op + " ")
			}
			p.expr(v)
		}
		p.out.WriteString(")")
	case *arena.UnaryOp:
		p.out.WriteString(n.Op)
		if n.Op == "not" {
			p.out.WriteString(" ")
		}
		p.expr(n.Operand)
	case *arena.Compare:
		p.expr(n.Left)
		for i, op := range n.Ops {
			p.out.WriteString(" " + op + " ")
			p.expr(n.Comparators[i])
		}
	case *arena.Call:
		p.expr(n.Func)
		p.out.WriteString("(")
		for i, a := range n.Args {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.expr(a)
		}
		for i, kw := range n.Keywords {
			if i > 0 || len(n.Args) > 0 {
				p.out.WriteString(", ")
			}
			p.out.WriteString(kw.Name + "=")
			p.expr(kw.Value)
		}
		p.out.WriteString(")")
	case *arena.Attribute:
		p.expr(n.Value)
		p.out.WriteString("." + n.Attr)
	case *arena.Subscript:
		p.expr(n.Value)
		p.out.WriteString("[")
		p.expr(n.Index)
		p.out.WriteString("]")
	case *arena.Slice:
		if n.Lower != nil {
			p.expr(n.Lower)
		}
		p.out.WriteString(":")
		if n.Upper != nil {
			p.expr(n.Upper)
		}
		if n.Step != nil {
			p.out.WriteString(":")
			p.expr(n.Step)
		}
	case *arena.IfExp:
		p.expr(n.Body)
		p.out.WriteString(" if ")
		p.expr(n.Test)
		p.out.WriteString(" else ")
		p.expr(n.Orelse)
	case *arena.Lambda:
		p.out.WriteString("lambda ")
		for i, param := range n.Params {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.out.WriteString(param.Name)
		}
		p.out.WriteString(": ")
		p.expr(n.Body)
	case *arena.ListExpr:
		p.out.WriteString("[")
		p.exprList(n.Elts)
		p.out.WriteString("]")
	case *arena.SetExpr:
		p.out.WriteString("{")
		p.exprList(n.Elts)
		p.out.WriteString("}")
	case *arena.TupleExpr:
		p.out.WriteString("(")
		p.exprList(n.Elts)
		p.out.WriteString(")")
	case *arena.DictExpr:
		p.out.WriteString("{")
		for i := range n.Keys {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.expr(n.Keys[i])
			p.out.WriteString(": ")
			p.expr(n.Values[i])
		}
		p.out.WriteString("}")
	case *arena.Starred:
		p.out.WriteString("*")
		p.expr(n.Value)
	case *arena.Await:
		p.out.WriteString("await ")
		p.expr(n.Value)
	case *arena.Yield:
		p.out.WriteString("yield")
		if n.Value != nil {
			p.out.WriteString(" ")
			p.expr(n.Value)
		}
	case *arena.YieldFrom:
		p.out.WriteString("yield from ")
		p.expr(n.Value)
	case *arena.JoinedStr:
		p.out.WriteString("f\"")
		for _, v := range n.Values {
			switch part := v.(type) {
			case *arena.Constant:
				p.out.WriteString(part.StrVal)
			case *arena.FormattedValue:
				p.out.WriteString("{")
				p.expr(part.Value)
				p.out.WriteString("}")
			}
		}
		p.out.WriteString("\"")
	case *arena.BuiltinTypeExpr:
		p.out.WriteString(n.Name)
	case *arena.ArrowTypeExpr:
		p.out.WriteString("(")
		for i, param := range n.Params {
			if i > 0 {
				p.out.WriteString(", ")
			}
			p.expr(param)
		}
		p.out.WriteString(") -> ")
		p.expr(n.Return)
	case *arena.ArrayTypeExpr:
		p.out.WriteString("[")
		p.expr(n.Elem)
		p.out.WriteString("]")
	case *arena.SetTypeExpr:
		p.out.WriteString("{")
		p.expr(n.Elem)
		p.out.WriteString("}")
	case *arena.DictTypeExpr:
		p.out.WriteString("{")
		p.expr(n.Key)
		p.out.WriteString(": ")
		p.expr(n.Value)
		p.out.WriteString("}")
	case *arena.TupleTypeExpr:
		p.out.WriteString("(")
		p.exprList(n.Elems)
		p.out.WriteString(")")
	case *arena.ClassTypeExpr:
		p.out.WriteString(n.Name)
	default:
		p.out.WriteString(fmt.Sprintf("<unprintable %T>", n))
	}
}

func (p *Printer) exprList(elts []arena.Expr) {
	for i, e := range elts {
		if i > 0 {
			p.out.WriteString(", ")
		}
		p.expr(e)
	}
}

func (p *Printer) constant(c *arena.Constant) {
	switch c.Kind {
	case arena.ConstInt:
		p.out.WriteString(strconv.FormatInt(c.IntVal, 10))
	case arena.ConstFloat:
		p.out.WriteString(strconv.FormatFloat(c.FloatVal, 'g', -1, 64))
	case arena.ConstString:
		p.out.WriteString(strconv.Quote(c.StrVal))
	case arena.ConstBool:
		if c.BoolVal {
			p.out.WriteString("True")
		} else {
			p.out.WriteString("False")
		}
	case arena.ConstNone:
		p.out.WriteString("None")
	}
}
