// Package arena implements the spec's arena: the single owner of every AST
// node in a module, and the tagged-union node schema itself. Per spec §9
// ("Tagged union, not inheritance"), nodes are a closed set of concrete Go
// struct types implementing a single marker interface (Node), dispatched by
// type switch rather than the teacher's polymorphic Expr/Stmt + Accept
// double dispatch — the idiomatic Go analogue of a tagged union (the same
// shape go/ast uses for its own node set).
package arena

import "fmt"

// Pos is the source position every node (that has one) carries.
type Pos struct {
	Line, Col int
	File      string
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col) }

// NodeKind tags every concrete node type for debug printing and the rare
// spot (pretty printer) that wants a switch over kind rather than Go type.
type NodeKind string

const (
	KindModule      NodeKind = "Module"
	KindInteractive NodeKind = "Interactive"
	KindExpression  NodeKind = "Expression"

	KindFunctionDef NodeKind = "FunctionDef"
	KindClassDef    NodeKind = "ClassDef"
	KindIf          NodeKind = "If"
	KindWhile       NodeKind = "While"
	KindFor         NodeKind = "For"
	KindWith        NodeKind = "With"
	KindTry         NodeKind = "Try"
	KindMatch       NodeKind = "Match"
	KindAssign      NodeKind = "Assign"
	KindAnnAssign   NodeKind = "AnnAssign"
	KindAugAssign   NodeKind = "AugAssign"
	KindReturn      NodeKind = "Return"
	KindRaise       NodeKind = "Raise"
	KindImport      NodeKind = "Import"
	KindImportFrom  NodeKind = "ImportFrom"
	KindGlobal      NodeKind = "Global"
	KindNonlocal    NodeKind = "Nonlocal"
	KindPass        NodeKind = "Pass"
	KindBreak       NodeKind = "Break"
	KindContinue    NodeKind = "Continue"
	KindAssert      NodeKind = "Assert"
	KindExprStmt    NodeKind = "Expr"
	KindInline      NodeKind = "Inline"

	KindBinOp        NodeKind = "BinOp"
	KindBoolOp       NodeKind = "BoolOp"
	KindUnaryOp      NodeKind = "UnaryOp"
	KindCompare      NodeKind = "Compare"
	KindCall         NodeKind = "Call"
	KindAttribute    NodeKind = "Attribute"
	KindSubscript    NodeKind = "Subscript"
	KindName         NodeKind = "Name"
	KindConstant     NodeKind = "Constant"
	KindLambda       NodeKind = "Lambda"
	KindIfExp        NodeKind = "IfExp"
	KindListExpr     NodeKind = "ListExpr"
	KindSetExpr      NodeKind = "SetExpr"
	KindDictExpr     NodeKind = "DictExpr"
	KindTupleExpr    NodeKind = "TupleExpr"
	KindListComp     NodeKind = "ListComp"
	KindSetComp      NodeKind = "SetComp"
	KindDictComp     NodeKind = "DictComp"
	KindGeneratorExp NodeKind = "GeneratorExp"
	KindAwait        NodeKind = "Await"
	KindYield        NodeKind = "Yield"
	KindYieldFrom    NodeKind = "YieldFrom"
	KindJoinedStr    NodeKind = "JoinedStr"
	KindFormattedVal NodeKind = "FormattedValue"
	KindStarred      NodeKind = "Starred"
	KindSlice        NodeKind = "Slice"

	KindArrowType   NodeKind = "Arrow"
	KindArrayType   NodeKind = "ArrayType"
	KindDictTypeAST NodeKind = "DictType"
	KindSetTypeAST  NodeKind = "SetType"
	KindTupleTypeAST NodeKind = "TupleType"
	KindBuiltinType NodeKind = "BuiltinType"
	KindClassTypeAST NodeKind = "ClassType"

	KindMatchValue    NodeKind = "MatchValue"
	KindMatchSingleton NodeKind = "MatchSingleton"
	KindMatchSequence NodeKind = "MatchSequence"
	KindMatchMapping  NodeKind = "MatchMapping"
	KindMatchClass    NodeKind = "MatchClass"
	KindMatchStar     NodeKind = "MatchStar"
	KindMatchAs       NodeKind = "MatchAs"
	KindMatchOr       NodeKind = "MatchOr"

	KindJump        NodeKind = "Jump"
	KindCondJump    NodeKind = "CondJump"
	KindVMNativeFn  NodeKind = "VMNativeFunction"
)

// Node is the marker interface every AST node implements.
type Node interface {
	NodeKind() NodeKind
	NodePos() Pos
}

// Expr is the subset of Node that produces a value.
type Expr interface {
	Node
	isExpr()
}

// Stmt is the subset of Node that is a statement.
type Stmt interface {
	Node
	isStmt()
}

// Base is embedded by every concrete node to satisfy NodePos() and to keep
// the per-node boilerplate to one line.
type Base struct {
	Pos Pos
}

func (b Base) NodePos() Pos { return b.Pos }

type ExprBase struct{ Base }

func (ExprBase) isExpr() {}

type StmtBase struct{ Base }

func (StmtBase) isStmt() {}

// ExprContext mirrors Python's Load/Store/Del context on Name (and,
// structurally, on the targets of Subscript/Attribute/Starred).
type ExprContext int

const (
	Load ExprContext = iota
	Store
	Del
)

func (c ExprContext) String() string {
	switch c {
	case Store:
		return "Store"
	case Del:
		return "Del"
	default:
		return "Load"
	}
}

// ---- Module-level wrapper nodes (ModNode) ----

type ModuleNode struct {
	StmtBase
	Body []Stmt
}

func (*ModuleNode) NodeKind() NodeKind { return KindModule }

type InteractiveNode struct {
	StmtBase
	Body []Stmt
}

func (*InteractiveNode) NodeKind() NodeKind { return KindInteractive }

type ExpressionNode struct {
	StmtBase
	Body Expr
}

func (*ExpressionNode) NodeKind() NodeKind { return KindExpression }

// ---- Statements ----

type Param struct {
	Name       string
	Annotation Expr // nil if unannotated
	Default    Expr // nil if no default
}

type FunctionDef struct {
	StmtBase
	Name       string
	Params     []Param
	ReturnType Expr // annotation, nil if absent
	Body       []Stmt
	Docstring  string
	IsAsync    bool
	Decorators []Expr

	// Varid is the slot this function's own name is bound to in the
	// enclosing scope; filled by SEMA.
	Varid int
	// Type caches the deduced Arrow so repeated analysis (e.g. via a
	// forward reference) is idempotent, per spec §4.5.
	Type interface{}
}

func (*FunctionDef) NodeKind() NodeKind { return KindFunctionDef }

type ClassDef struct {
	StmtBase
	Name       string
	Bases      []Expr
	Body       []Stmt
	Docstring  string
	Decorators []Expr

	Varid int
	Type  interface{}
}

func (*ClassDef) NodeKind() NodeKind { return KindClassDef }

type If struct {
	StmtBase
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (*If) NodeKind() NodeKind { return KindIf }

type While struct {
	StmtBase
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (*While) NodeKind() NodeKind { return KindWhile }

type For struct {
	StmtBase
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (*For) NodeKind() NodeKind { return KindFor }

type WithItem struct {
	ContextExpr Expr
	OptionalVars Expr
}

type With struct {
	StmtBase
	Items []WithItem
	Body  []Stmt
}

func (*With) NodeKind() NodeKind { return KindWith }

type ExceptHandler struct {
	ExcType Expr
	Name    string
	Body    []Stmt
}

type Try struct {
	StmtBase
	Body     []Stmt
	Handlers []ExceptHandler
	Orelse   []Stmt
	Finally  []Stmt
}

func (*Try) NodeKind() NodeKind { return KindTry }

type MatchCase struct {
	Pattern Node // one of the Match* pattern nodes
	Guard   Expr
	Body    []Stmt
}

type Match struct {
	StmtBase
	Subject Expr
	Cases   []MatchCase
}

func (*Match) NodeKind() NodeKind { return KindMatch }

type Assign struct {
	StmtBase
	Targets []Expr
	Value   Expr
}

func (*Assign) NodeKind() NodeKind { return KindAssign }

type AnnAssign struct {
	StmtBase
	Target     Expr
	Annotation Expr
	Value      Expr // may be nil (declaration without value)
}

func (*AnnAssign) NodeKind() NodeKind { return KindAnnAssign }

type AugAssign struct {
	StmtBase
	Target Expr
	Op     string
	Value  Expr
}

func (*AugAssign) NodeKind() NodeKind { return KindAugAssign }

type Return struct {
	StmtBase
	Value Expr // nil for bare `return`
}

func (*Return) NodeKind() NodeKind { return KindReturn }

type Raise struct {
	StmtBase
	Exc   Expr
	Cause Expr
}

func (*Raise) NodeKind() NodeKind { return KindRaise }

type Alias struct {
	Name   string
	AsName string // empty if no `as`
}

type Import struct {
	StmtBase
	Names []Alias
}

func (*Import) NodeKind() NodeKind { return KindImport }

type ImportFrom struct {
	StmtBase
	Module string
	Names  []Alias
}

func (*ImportFrom) NodeKind() NodeKind { return KindImportFrom }

type Global struct {
	StmtBase
	Names []string
}

func (*Global) NodeKind() NodeKind { return KindGlobal }

type Nonlocal struct {
	StmtBase
	Names []string
}

func (*Nonlocal) NodeKind() NodeKind { return KindNonlocal }

type Pass struct{ StmtBase }

func (*Pass) NodeKind() NodeKind { return KindPass }

type Break struct{ StmtBase }

func (*Break) NodeKind() NodeKind { return KindBreak }

type Continue struct{ StmtBase }

func (*Continue) NodeKind() NodeKind { return KindContinue }

type Assert struct {
	StmtBase
	Test Expr
	Msg  Expr
}

func (*Assert) NodeKind() NodeKind { return KindAssert }

// ExprStmt wraps a bare expression used as a statement (e.g. a call for
// its side effects, or a docstring literal).
type ExprStmt struct {
	StmtBase
	Value Expr
}

func (*ExprStmt) NodeKind() NodeKind { return KindExprStmt }

// Inline is a single-line statement sequence (`a; b; c`), grounded on
// spec §3's AST node enumeration naming it as a distinct statement kind.
type Inline struct {
	StmtBase
	Stmts []Stmt
}

func (*Inline) NodeKind() NodeKind { return KindInline }

// ---- Expressions ----

type BinOp struct {
	ExprBase
	Left  Expr
	Op    string
	Right Expr
}

func (*BinOp) NodeKind() NodeKind { return KindBinOp }

type BoolOp struct {
	ExprBase
	Op     string // "and" / "or"
	Values []Expr
}

func (*BoolOp) NodeKind() NodeKind { return KindBoolOp }

type UnaryOp struct {
	ExprBase
	Op      string
	Operand Expr
}

func (*UnaryOp) NodeKind() NodeKind { return KindUnaryOp }

type Compare struct {
	ExprBase
	Left  Expr
	Ops   []string
	Comparators []Expr
}

func (*Compare) NodeKind() NodeKind { return KindCompare }

type Keyword struct {
	Name  string // empty for **kwargs-style spread, unused here
	Value Expr
}

type Call struct {
	ExprBase
	Func Expr
	Args []Expr
	Keywords []Keyword
}

func (*Call) NodeKind() NodeKind { return KindCall }

type Attribute struct {
	ExprBase
	Value Expr
	Attr  string
	Ctx   ExprContext
}

func (*Attribute) NodeKind() NodeKind { return KindAttribute }

type Subscript struct {
	ExprBase
	Value Expr
	Index Expr
	Ctx   ExprContext
}

func (*Subscript) NodeKind() NodeKind { return KindSubscript }

type Name struct {
	ExprBase
	Id  string
	Ctx ExprContext
	// Varid is filled by SEMA: the absolute binding-vector slot this name
	// resolves to, or -1 if unresolved (an error was recorded instead).
	Varid int
}

func (*Name) NodeKind() NodeKind { return KindName }

// ConstKind tags the sum-type payload of Constant (spec §3).
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBool
	ConstNone
)

type Constant struct {
	ExprBase
	Kind    ConstKind
	IntVal  int64
	FloatVal float64
	StrVal  string
	BoolVal bool
}

func (*Constant) NodeKind() NodeKind { return KindConstant }

type Lambda struct {
	ExprBase
	Params []Param
	Body   Expr
}

func (*Lambda) NodeKind() NodeKind { return KindLambda }

type IfExp struct {
	ExprBase
	Test   Expr
	Body   Expr
	Orelse Expr
}

func (*IfExp) NodeKind() NodeKind { return KindIfExp }

type ListExpr struct {
	ExprBase
	Elts []Expr
	Ctx  ExprContext
}

func (*ListExpr) NodeKind() NodeKind { return KindListExpr }

type SetExpr struct {
	ExprBase
	Elts []Expr
}

func (*SetExpr) NodeKind() NodeKind { return KindSetExpr }

type DictExpr struct {
	ExprBase
	Keys   []Expr
	Values []Expr
}

func (*DictExpr) NodeKind() NodeKind { return KindDictExpr }

type TupleExpr struct {
	ExprBase
	Elts []Expr
	Ctx  ExprContext
}

func (*TupleExpr) NodeKind() NodeKind { return KindTupleExpr }

// Comprehension is shared by List/Set/Dict/Generator comprehensions.
type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

type ListComp struct {
	ExprBase
	Elt    Expr
	Generators []Comprehension
}

func (*ListComp) NodeKind() NodeKind { return KindListComp }

type SetComp struct {
	ExprBase
	Elt        Expr
	Generators []Comprehension
}

func (*SetComp) NodeKind() NodeKind { return KindSetComp }

type DictComp struct {
	ExprBase
	Key, Value Expr
	Generators []Comprehension
}

func (*DictComp) NodeKind() NodeKind { return KindDictComp }

type GeneratorExp struct {
	ExprBase
	Elt        Expr
	Generators []Comprehension
}

func (*GeneratorExp) NodeKind() NodeKind { return KindGeneratorExp }

type Await struct {
	ExprBase
	Value Expr
}

func (*Await) NodeKind() NodeKind { return KindAwait }

type Yield struct {
	ExprBase
	Value Expr // nil for bare yield
}

func (*Yield) NodeKind() NodeKind { return KindYield }

type YieldFrom struct {
	ExprBase
	Value Expr
}

func (*YieldFrom) NodeKind() NodeKind { return KindYieldFrom }

type JoinedStr struct {
	ExprBase
	Values []Expr // Constant(string) and FormattedValue nodes
}

func (*JoinedStr) NodeKind() NodeKind { return KindJoinedStr }

type FormattedValue struct {
	ExprBase
	Value Expr
	Spec  string
}

func (*FormattedValue) NodeKind() NodeKind { return KindFormattedVal }

type Starred struct {
	ExprBase
	Value Expr
	Ctx   ExprContext
}

func (*Starred) NodeKind() NodeKind { return KindStarred }

type Slice struct {
	ExprBase
	Lower, Upper, Step Expr
}

func (*Slice) NodeKind() NodeKind { return KindSlice }

// ---- Type expressions ----

type ArrowTypeExpr struct {
	ExprBase
	Params []Expr
	Return Expr
}

func (*ArrowTypeExpr) NodeKind() NodeKind { return KindArrowType }

type ArrayTypeExpr struct {
	ExprBase
	Elem Expr
}

func (*ArrayTypeExpr) NodeKind() NodeKind { return KindArrayType }

type DictTypeExpr struct {
	ExprBase
	Key, Value Expr
}

func (*DictTypeExpr) NodeKind() NodeKind { return KindDictTypeAST }

type SetTypeExpr struct {
	ExprBase
	Elem Expr
}

func (*SetTypeExpr) NodeKind() NodeKind { return KindSetTypeAST }

type TupleTypeExpr struct {
	ExprBase
	Elems []Expr
}

func (*TupleTypeExpr) NodeKind() NodeKind { return KindTupleTypeAST }

type BuiltinTypeExpr struct {
	ExprBase
	Name string
}

func (*BuiltinTypeExpr) NodeKind() NodeKind { return KindBuiltinType }

type ClassTypeExpr struct {
	ExprBase
	Name string
}

func (*ClassTypeExpr) NodeKind() NodeKind { return KindClassTypeAST }

// ---- match patterns ----

type MatchValue struct {
	Base
	Value Expr
}

func (*MatchValue) NodeKind() NodeKind { return KindMatchValue }

type MatchSingleton struct {
	Base
	Value interface{} // bool, nil
}

func (*MatchSingleton) NodeKind() NodeKind { return KindMatchSingleton }

type MatchSequence struct {
	Base
	Patterns []Node
}

func (*MatchSequence) NodeKind() NodeKind { return KindMatchSequence }

type MatchMapping struct {
	Base
	Keys     []Expr
	Patterns []Node
	Rest     string // name bound to remaining keys, "" if absent
}

func (*MatchMapping) NodeKind() NodeKind { return KindMatchMapping }

type MatchClass struct {
	Base
	Cls       Expr
	Patterns  []Node
	KwdNames  []string
	KwdPatterns []Node
}

func (*MatchClass) NodeKind() NodeKind { return KindMatchClass }

type MatchStar struct {
	Base
	Name string
}

func (*MatchStar) NodeKind() NodeKind { return KindMatchStar }

type MatchAs struct {
	Base
	Pattern Node // nil for a bare capture
	Name    string
}

func (*MatchAs) NodeKind() NodeKind { return KindMatchAs }

type MatchOr struct {
	Base
	Patterns []Node
}

func (*MatchOr) NodeKind() NodeKind { return KindMatchOr }

// ---- VM-only nodes ----

// Jump and CondJump are pseudo-statements only vmgen ever creates;
// Destination/ThenJmp/ElseJmp are indices into the owning Program's
// instruction vector, patched after both branches are lowered.
type Jump struct {
	StmtBase
	Destination int
}

func (*Jump) NodeKind() NodeKind { return KindJump }

type CondJump struct {
	StmtBase
	Test    Expr
	ThenJmp int
	ElseJmp int
	// Owner identifies the structural statement (currently only *For) this
	// CondJump was lowered from, letting vmexec key per-loop iterator state
	// without a separate side table keyed by source position. Nil for
	// If/Assert-derived CondJumps, which carry no iteration state.
	Owner Node
}

func (*CondJump) NodeKind() NodeKind { return KindCondJump }

// VMNativeFunction marks a FunctionDef whose body is a Go callback instead
// of Lython statements (the builtins pre-inserted into the root Module).
type VMNativeFunction struct {
	StmtBase
	Name string
	Arity int
	Call func(args []interface{}) (interface{}, error)
}

func (*VMNativeFunction) NodeKind() NodeKind { return KindVMNativeFn }
