package sema

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lython/lython/internal/arena"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/lexer"
	"github.com/lython/lython/internal/module"
	"github.com/lython/lython/internal/parser"
	"github.com/lython/lython/internal/types"

	"github.com/lython/lython/internal/buffer"
)

// Analyzer walks one module's AST, annotating Name/FunctionDef/ClassDef
// nodes with resolved varids and types, and recording every problem it
// finds into errs rather than aborting.
type Analyzer struct {
	arena       *arena.Arena
	errs        *lyerrors.List
	loader      *Loader
	file        string
	returnStack []*[]types.Type
}

// AnalyzeModule runs SEMA over mod, starting from a fresh root Module
// scope, using loader to resolve `import`/`from ... import` statements
// (pass nil to disable import resolution, e.g. in tests that don't touch
// imports). Returns the populated root scope and the error list.
func AnalyzeModule(a *arena.Arena, mod *arena.ModuleNode, file string, loader *Loader) (*module.Module, *lyerrors.List) {
	errs := &lyerrors.List{}
	root := module.NewRoot(file)
	an := &Analyzer{arena: a, errs: errs, loader: loader, file: file}
	an.analyze(mod, root)
	return root, errs
}

func (an *Analyzer) analyze(mod *arena.ModuleNode, scope *module.Module) {
	an.visitBody(mod.Body, scope)
}

// declareTop is spec §5's forward-declaration prepass: every top-level
// def/class is inserted as {name, node, Unknown} before any body is
// visited, so two functions that call each other resolve regardless of
// source order.
func (an *Analyzer) declareTop(body []arena.Stmt, scope *module.Module) {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *arena.FunctionDef:
			s.Varid = scope.Insert(s.Name, s, types.Unknown{})
		case *arena.ClassDef:
			s.Varid = scope.Insert(s.Name, s, types.Unknown{})
		}
	}
}

func (an *Analyzer) addErr(kind lyerrors.Kind, msg string, pos arena.Pos) {
	an.errs.Add(&lyerrors.LythonError{Kind: kind, Message: msg, Location: lyerrors.SourceLocation{File: pos.File, Line: pos.Line, Column: pos.Col}})
}

// evalTypeExpr interprets an AST node used in annotation position (a
// BuiltinTypeExpr, ArrowTypeExpr, container type expression, or a Name
// referring to a class) as a types.Type, per spec §4.5's annotated
// argument/return type handling.
func (an *Analyzer) evalTypeExpr(e arena.Expr, scope *module.Module) types.Type {
	if e == nil {
		return types.Unknown{}
	}
	switch n := e.(type) {
	case *arena.BuiltinTypeExpr:
		return builtinByName(n.Name)
	case *arena.ClassTypeExpr:
		if idx, ok := scope.Lookup(n.Name); ok {
			return scope.BindingAt(idx).Type
		}
		an.addErr(lyerrors.NameError, "name \""+n.Name+"\" is not defined", n.NodePos())
		return types.Null{}
	case *arena.ArrowTypeExpr:
		// spec §3/§9: has_circle is enforced on every Arrow mutator. The
		// parser already rejects a self-nesting literal at parse time
		// (internal/parser/typeexpr.go); this catches the case a literal
		// can't, an Arrow AST node shared by arena aliasing into its own
		// Params/Return once a name resolves back to it.
		if arena.HasCircle(n) {
			an.addErr(lyerrors.TypeError, "Arrow type refers to itself transitively", n.NodePos())
			return types.Null{}
		}
		params := make([]types.Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = an.evalTypeExpr(p, scope)
		}
		return &types.Arrow{Params: params, Return: an.evalTypeExpr(n.Return, scope)}
	case *arena.ArrayTypeExpr:
		return &types.ArrayType{Elem: an.evalTypeExpr(n.Elem, scope)}
	case *arena.SetTypeExpr:
		return &types.SetType{Elem: an.evalTypeExpr(n.Elem, scope)}
	case *arena.TupleTypeExpr:
		elems := make([]types.Type, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = an.evalTypeExpr(el, scope)
		}
		return &types.TupleType{Elems: elems}
	case *arena.DictTypeExpr:
		return &types.DictType{Key: an.evalTypeExpr(n.Key, scope), Value: an.evalTypeExpr(n.Value, scope)}
	case *arena.Name:
		if idx, ok := scope.Lookup(n.Id); ok {
			return scope.BindingAt(idx).Type
		}
		an.addErr(lyerrors.NameError, "name \""+n.Id+"\" is not defined", n.NodePos())
		return types.Null{}
	}
	// Any other expression in annotation position isn't part of the type
	// expression grammar spec §4 names; visiting it as a value expression
	// still produces *some* type for error-recovery purposes.
	return an.visitExpr(e, scope)
}

func builtinByName(name string) types.Type {
	switch name {
	case "Float":
		return types.Float
	case "Int":
		return types.Int
	case "Str":
		return types.Str
	case "Bool":
		return types.Bool
	case "None":
		return types.None
	case "Type":
		return types.TypeType{}
	}
	return &types.Builtin{Name: name}
}

// typecheck records a TypeError when want and got aren't structurally
// equal, per spec §4.5's typecheck operation.
func (an *Analyzer) typecheck(wantRepr string, want types.Type, gotRepr string, got types.Type, pos arena.Pos) bool {
	if types.Equal(want, got) {
		return true
	}
	an.errs.Add(lyerrors.NewTypeError(wantRepr, want.String(), gotRepr, got.String(), pos.File, pos.Line, pos.Col))
	return false
}

// ---- import resolution (spec §4.5 Imports) ----

// Loader resolves dotted import paths against a colon-separated search
// path (read from the process environment, PYTHONPATH-style) and caches
// analyzed modules by resolved file path. Grounded on the teacher's
// internal/module.ModuleLoader (cache + sync.RWMutex), generalized from
// flat ".sn" names to dotted ".ly" paths and from a single search
// directory to a colon-separated list.
type Loader struct {
	mu         sync.RWMutex
	cache      map[string]*module.Module
	searchPath []string
}

// NewLoader builds a Loader reading its search path from envVar (the
// caller passes "PYTHONPATH" or any equivalent variable name per spec §6).
func NewLoader(envVar string) *Loader {
	l := &Loader{cache: map[string]*module.Module{}}
	if v := os.Getenv(envVar); v != "" {
		l.searchPath = strings.Split(v, ":")
	}
	return l
}

// Resolve turns a dotted import path into a source file, walking the
// search path and trying both `a/b/c.ly` and `a/b/c/__init__.ly`.
func (l *Loader) Resolve(dotted string) (string, bool) {
	rel := strings.ReplaceAll(dotted, ".", string(filepath.Separator))
	for _, dir := range l.searchPath {
		candidate := filepath.Join(dir, rel+".ly")
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, true
		}
		initCandidate := filepath.Join(dir, rel, "__init__.ly")
		if fi, err := os.Stat(initCandidate); err == nil && !fi.IsDir() {
			return initCandidate, true
		}
	}
	return "", false
}

// Load resolves, lexes, parses, and analyzes dotted, caching the result by
// resolved path so a diamond import graph only analyzes each file once.
// Parse/SEMA errors accumulate into errs rather than aborting the caller's
// own analysis.
func (l *Loader) Load(a *arena.Arena, dotted string, errs *lyerrors.List, atPos arena.Pos) *module.Module {
	path, found := l.Resolve(dotted)
	if !found {
		errs.Add(lyerrors.NewModuleNotFoundError(dotted, atPos.File, atPos.Line, atPos.Col))
		return nil
	}

	l.mu.RLock()
	if cached, ok := l.cache[path]; ok {
		l.mu.RUnlock()
		return cached
	}
	l.mu.RUnlock()

	src, err := os.ReadFile(path)
	if err != nil {
		errs.Add(lyerrors.NewImportError("could not read module "+dotted, atPos.File, atPos.Line, atPos.Col).WithCause(err))
		return nil
	}

	buf := buffer.NewString(string(src), path)
	lex := lexer.New(buf)
	p := parser.New(lex, a, path).WithSource(string(src))
	modNode := p.Parse()
	for _, e := range p.Errors.Errors() {
		errs.Add(e)
	}

	scope, subErrs := AnalyzeModule(a, modNode, path, l)
	for _, e := range subErrs.Errors() {
		errs.Add(e)
	}

	l.mu.Lock()
	l.cache[path] = scope
	l.mu.Unlock()
	return scope
}
