package ast

import "github.com/saldlang/sald/pkg/bytecode"

// FunctionDef is the shared shape for a standalone function declaration and
// a class method declaration.
type FunctionDef struct {
	Name       string
	Params     []FunctionParam
	Body       []Stmt
	IsStatic   bool
	IsAsync    bool
	Decorators []string
	SpanVal    bytecode.Span
}

func (f FunctionDef) Span() bytecode.Span { return f.SpanVal }

// ClassDef is a class declaration: a name, an optional superclass name, and
// its methods (static and instance methods are distinguished per-method by
// FunctionDef.IsStatic).
type ClassDef struct {
	Name       string
	Superclass string // "" if there is none
	Methods    []FunctionDef
	SpanVal    bytecode.Span
}

func (c ClassDef) Span() bytecode.Span { return c.SpanVal }

// InterfaceDef declares a named set of required method signatures. It
// compiles to nothing at the bytecode level — there is no opcode for it —
// and exists purely so a native `implementsInterface` helper has a
// registry of method-name sets to check a class against.
type InterfaceDef struct {
	Name        string
	MethodNames []string
	SpanVal     bytecode.Span
}

func (i InterfaceDef) Span() bytecode.Span { return i.SpanVal }

// --- statement nodes ---

type LetStmt struct {
	Name        string
	Initializer Expr // nil for `let x` with no initializer
	SpanVal     bytecode.Span
}

func (s *LetStmt) Span() bytecode.Span { return s.SpanVal }
func (s *LetStmt) stmtNode()           {}

// DestructureKind tags whether LetDestructureStmt binds from an array or a
// dictionary initializer.
type DestructureKind int

const (
	DestructureArray DestructureKind = iota
	DestructureDict
)

// DestructureTarget is one binding inside a destructuring let. For an array
// destructure, Key is unused and the binding is positional; for a dict
// destructure, Key names the source field each Name is pulled from.
type DestructureTarget struct {
	Name   string
	Key    string // source field name; dict destructure only
	IsRest bool   // true for a trailing `...name` catch-all
}

// LetDestructureStmt binds several names at once from an array or
// dictionary initializer: `let [a, b, ...rest] = xs` or
// `let {x, y} = point`.
type LetDestructureStmt struct {
	Kind        DestructureKind
	Targets     []DestructureTarget
	Initializer Expr
	SpanVal     bytecode.Span
}

func (s *LetDestructureStmt) Span() bytecode.Span { return s.SpanVal }
func (s *LetDestructureStmt) stmtNode()           {}

// ConstStmt declares a compile-time-checked, assign-once binding. Unlike
// Let, a second assignment to the same name in the same scope is a compile
// error, not a runtime one.
type ConstStmt struct {
	Name    string
	Value   Expr
	SpanVal bytecode.Span
}

func (s *ConstStmt) Span() bytecode.Span { return s.SpanVal }
func (s *ConstStmt) stmtNode()           {}

type ExpressionStmt struct {
	Inner   Expr
	SpanVal bytecode.Span
}

func (s *ExpressionStmt) Span() bytecode.Span { return s.SpanVal }
func (s *ExpressionStmt) stmtNode()           {}

type BlockStmt struct {
	Statements []Stmt
	SpanVal    bytecode.Span
}

func (s *BlockStmt) Span() bytecode.Span { return s.SpanVal }
func (s *BlockStmt) stmtNode()           {}

type IfStmt struct {
	Condition Expr
	Then      Stmt
	Else      Stmt // nil if there is no else branch
	SpanVal   bytecode.Span
}

func (s *IfStmt) Span() bytecode.Span { return s.SpanVal }
func (s *IfStmt) stmtNode()           {}

type WhileStmt struct {
	Condition Expr
	Body      Stmt
	SpanVal   bytecode.Span
}

func (s *WhileStmt) Span() bytecode.Span { return s.SpanVal }
func (s *WhileStmt) stmtNode()           {}

type DoWhileStmt struct {
	Body      Stmt
	Condition Expr
	SpanVal   bytecode.Span
}

func (s *DoWhileStmt) Span() bytecode.Span { return s.SpanVal }
func (s *DoWhileStmt) stmtNode()           {}

type FunctionStmt struct {
	Def FunctionDef
}

func (s *FunctionStmt) Span() bytecode.Span { return s.Def.Span() }
func (s *FunctionStmt) stmtNode()           {}

type ReturnStmt struct {
	Value   Expr // nil for a bare return
	SpanVal bytecode.Span
}

func (s *ReturnStmt) Span() bytecode.Span { return s.SpanVal }
func (s *ReturnStmt) stmtNode()           {}

type ClassStmt struct {
	Def ClassDef
}

func (s *ClassStmt) Span() bytecode.Span { return s.Def.Span() }
func (s *ClassStmt) stmtNode()           {}

type InterfaceStmt struct {
	Def InterfaceDef
}

func (s *InterfaceStmt) Span() bytecode.Span { return s.Def.Span() }
func (s *InterfaceStmt) stmtNode()           {}

// ForStmt is a for-in loop: `for item in iterable { ... }`. Iterable may be
// an ArrayExpr, a RangeExpr, or anything else the compiler knows how to
// drive an iteration protocol over.
type ForStmt struct {
	Variable string
	Iterable Expr
	Body     Stmt
	SpanVal  bytecode.Span
}

func (s *ForStmt) Span() bytecode.Span { return s.SpanVal }
func (s *ForStmt) stmtNode()           {}

type BreakStmt struct{ SpanVal bytecode.Span }

func (s *BreakStmt) Span() bytecode.Span { return s.SpanVal }
func (s *BreakStmt) stmtNode()           {}

type ContinueStmt struct{ SpanVal bytecode.Span }

func (s *ContinueStmt) Span() bytecode.Span { return s.SpanVal }
func (s *ContinueStmt) stmtNode()           {}

type ImportStmt struct {
	Path    string
	Alias   string // "" if the import has no `as Alias` clause
	SpanVal bytecode.Span
}

func (s *ImportStmt) Span() bytecode.Span { return s.SpanVal }
func (s *ImportStmt) stmtNode()           {}

type TryCatchStmt struct {
	TryBody   Stmt
	CatchVar  string
	CatchBody Stmt
	SpanVal   bytecode.Span
}

func (s *TryCatchStmt) Span() bytecode.Span { return s.SpanVal }
func (s *TryCatchStmt) stmtNode()           {}

type ThrowStmt struct {
	Value   Expr
	SpanVal bytecode.Span
}

func (s *ThrowStmt) Span() bytecode.Span { return s.SpanVal }
func (s *ThrowStmt) stmtNode()           {}

type NamespaceStmt struct {
	Name    string
	Body    []Stmt
	SpanVal bytecode.Span
}

func (s *NamespaceStmt) Span() bytecode.Span { return s.SpanVal }
func (s *NamespaceStmt) stmtNode()           {}

type EnumStmt struct {
	Name     string
	Variants []string
	SpanVal  bytecode.Span
}

func (s *EnumStmt) Span() bytecode.Span { return s.SpanVal }
func (s *EnumStmt) stmtNode()           {}
