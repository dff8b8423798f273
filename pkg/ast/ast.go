// Package ast defines the node shapes the compiler consumes (spec.md §6's
// parser interface). Lexing and parsing are external collaborators; this
// package only specifies the contract between whatever builds a Program and
// pkg/compiler, which lowers it into bytecode.
package ast

import "github.com/saldlang/sald/pkg/bytecode"

// Node is implemented by every AST node, statement or expression.
type Node interface {
	Span() bytecode.Span
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Program is the root node: a parsed source file, top to bottom.
type Program struct {
	Statements []Stmt
}
