// Package errors defines the typed diagnostics shared by every pass of the
// Lython pipeline. Lexer, parser and SEMA never abort on the first problem;
// they construct a LythonError, record it, and keep going.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Kind identifies which layer of the pipeline raised the error.
type Kind string

const (
	LexError           Kind = "LexError"
	SyntaxError        Kind = "SyntaxError"
	NameError          Kind = "NameError"
	AttributeError     Kind = "AttributeError"
	TypeError          Kind = "TypeError"
	UnsupportedOperand Kind = "UnsupportedOperand"
	ImportError        Kind = "ImportError"
	ModuleNotFoundError Kind = "ModuleNotFoundError"
	RuntimeError       Kind = "RuntimeError"
	NotImplemented     Kind = "NotImplemented"
)

// SourceLocation pinpoints a diagnostic within a source file.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// StackFrame is one entry of a LythonError's call stack, populated by the
// VM interpreter when a runtime error unwinds through nested calls.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// LythonError is the single error type produced by every pass.
type LythonError struct {
	Kind      Kind
	Message   string
	Location  SourceLocation
	Source    string
	CallStack []StackFrame
	cause     error
}

func (e *LythonError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	if e.Location.File != "" || e.Location.Line != 0 {
		sb.WriteString(fmt.Sprintf(" (at %s)", e.Location))
	}
	if e.Source != "" {
		sb.WriteString("\n  | " + e.Source)
		if e.Location.Column > 0 {
			sb.WriteString("\n  | " + strings.Repeat(" ", e.Location.Column-1) + "^")
		}
	}
	for _, f := range e.CallStack {
		sb.WriteString(fmt.Sprintf("\n  at %s (%s:%d)", f.Function, f.File, f.Line))
	}
	return sb.String()
}

// Unwrap exposes a wrapped cause (e.g. a filesystem error encountered while
// resolving an import) to errors.Is/As.
func (e *LythonError) Unwrap() error { return e.cause }

func newError(kind Kind, msg string, loc SourceLocation) *LythonError {
	return &LythonError{Kind: kind, Message: msg, Location: loc}
}

func NewLexError(msg, file string, line, col int) *LythonError {
	return newError(LexError, msg, SourceLocation{file, line, col})
}

func NewSyntaxError(msg, file string, line, col int) *LythonError {
	return newError(SyntaxError, msg, SourceLocation{file, line, col})
}

func NewNameError(name, file string, line, col int) *LythonError {
	return newError(NameError, fmt.Sprintf("name %q is not defined", name), SourceLocation{file, line, col})
}

// NewAttributeError reports a missing attribute, appending a sorted list of
// the class's known attributes when any were given so the message points
// the reader at the nearest spellings rather than just the one that failed.
func NewAttributeError(class, attr string, candidates []string, file string, line, col int) *LythonError {
	msg := fmt.Sprintf("%q has no attribute %q", class, attr)
	if len(candidates) > 0 {
		sorted := append([]string(nil), candidates...)
		slices.Sort(sorted)
		msg += fmt.Sprintf(" (known attributes: %s)", strings.Join(sorted, ", "))
	}
	return newError(AttributeError, msg, SourceLocation{file, line, col})
}

func NewTypeError(lhsRepr, lhsType, rhsRepr, rhsType, file string, line, col int) *LythonError {
	msg := fmt.Sprintf("type mismatch: %s (%s) vs %s (%s)", lhsRepr, lhsType, rhsRepr, rhsType)
	return newError(TypeError, msg, SourceLocation{file, line, col})
}

func NewUnsupportedOperand(op, lhsType, rhsType, file string, line, col int) *LythonError {
	msg := fmt.Sprintf("unsupported operand %q for %s and %s", op, lhsType, rhsType)
	return newError(UnsupportedOperand, msg, SourceLocation{file, line, col})
}

func NewImportError(msg, file string, line, col int) *LythonError {
	return newError(ImportError, msg, SourceLocation{file, line, col})
}

func NewModuleNotFoundError(name, file string, line, col int) *LythonError {
	return newError(ModuleNotFoundError, fmt.Sprintf("no module named %q", name), SourceLocation{file, line, col})
}

func NewRuntimeError(msg, file string, line, col int) *LythonError {
	return newError(RuntimeError, msg, SourceLocation{file, line, col})
}

func NewNotImplemented(feature, file string, line, col int) *LythonError {
	return newError(NotImplemented, fmt.Sprintf("%s is not implemented by this VM", feature), SourceLocation{file, line, col})
}

// WithSource attaches the offending source line for context in printed
// diagnostics.
func (e *LythonError) WithSource(src string) *LythonError {
	e.Source = src
	return e
}

// WithCause wraps an underlying error (typically a filesystem error hit
// while resolving an import) with a stack trace via pkg/errors; Unwrap
// exposes the wrapped cause to errors.Is/As.
func (e *LythonError) WithCause(cause error) *LythonError {
	e.cause = pkgerrors.WithStack(cause)
	return e
}

// AddStackFrame pushes one call-stack entry, innermost frame first.
func (e *LythonError) AddStackFrame(function, file string, line int) *LythonError {
	e.CallStack = append(e.CallStack, StackFrame{function, file, line})
	return e
}

// List is the append-only error sink every pass but the lexer's token
// stream and the VM interpreter share: SEMA records into one and keeps
// visiting so a single run reports every problem it finds.
type List struct {
	errs []*LythonError
}

func (l *List) Add(e *LythonError) { l.errs = append(l.errs, e) }

func (l *List) HasErrors() bool { return len(l.errs) > 0 }

func (l *List) Errors() []*LythonError { return l.errs }

func (l *List) Len() int { return len(l.errs) }
